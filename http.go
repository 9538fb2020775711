package trafficlight

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type HTTPActionConfig struct {
	URL                string            `yaml:"url"`
	Method             string            `yaml:"method"`
	Headers            map[string]string `yaml:"headers"`
	Body               string            `yaml:"body"`
	ExpectCode         string            `yaml:"expect_code"`
	NoCheckCertificate bool              `yaml:"no_check_certificate"`
}

// HTTPAction sends one request per activation and checks the status code.
type HTTPAction struct {
	URL            string
	Method         string
	Headers        map[string]string
	Body           string
	ExpectCodeFunc func(code int) bool

	name   string
	client *http.Client
}

func NewHTTPAction(cfg *GateConfig) (*HTTPAction, error) {
	p := &HTTPAction{
		name:    cfg.Name,
		Method:  cfg.HTTP.Method,
		Headers: cfg.HTTP.Headers,
		Body:    cfg.HTTP.Body,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.HTTP.NoCheckCertificate},
			},
		},
	}
	u, err := url.Parse(cfg.HTTP.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", cfg.HTTP.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %s: scheme must be http or https", cfg.HTTP.URL)
	}
	p.URL = u.String()

	if p.Method == "" {
		p.Method = http.MethodPost
	}
	if cfg.HTTP.ExpectCode == "" {
		p.ExpectCodeFunc = func(code int) bool {
			return code >= 200 && code < 400
		}
	} else {
		p.ExpectCodeFunc, err = newExpectCodeFunc(cfg.HTTP.ExpectCode)
		if err != nil {
			return nil, fmt.Errorf("invalid expect_code %s: %w", cfg.HTTP.ExpectCode, err)
		}
	}
	return p, nil
}

func (p *HTTPAction) Name() string {
	return p.name
}

func (p *HTTPAction) Run(ctx context.Context) error {
	logger := newLoggerFromContext(ctx).With("name", p.name, "module", "httpaction")

	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, strings.NewReader(p.Body))
	if err != nil {
		return err
	}
	for name, value := range p.Headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("User-Agent", "trafficlight/"+Version)
	if s, ok := stateFromContext(ctx); ok {
		req.Header.Set("X-Trafficlight-Phase", s.Phase.String())
		req.Header.Set("X-Trafficlight-Activation-Id", s.ActivationID)
	}

	logger.Debug(fmt.Sprintf("http request %s %s", req.Method, req.URL))
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if !p.ExpectCodeFunc(resp.StatusCode) {
		return fmt.Errorf("expect code not match: %d", resp.StatusCode)
	}
	logger.Debug("http request succeeded", "status", resp.StatusCode)
	return nil
}

// newExpectCodeFunc parses a string of comma separated HTTP status codes and
// returns a function that checks if the given code is in the list.
// e.g. "200,201,202-204,300-399"
func newExpectCodeFunc(codes string) (func(code int) bool, error) {
	type codeRange struct{ lower, upper int }
	var parsed []codeRange

	for _, r := range strings.Split(codes, ",") {
		r = strings.TrimSpace(r)
		bounds := strings.Split(r, "-")
		for i := range bounds {
			bounds[i] = strings.TrimSpace(bounds[i])
		}
		switch len(bounds) {
		case 1:
			code, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, errors.New("invalid code: " + bounds[0])
			}
			parsed = append(parsed, codeRange{code, code})
		case 2:
			lower, err1 := strconv.Atoi(bounds[0])
			upper, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil {
				return nil, errors.New("invalid range: " + r)
			}
			if lower > upper {
				return nil, errors.New("invalid range: " + r)
			}
			parsed = append(parsed, codeRange{lower, upper})
		default:
			return nil, errors.New("invalid format: " + r)
		}
	}

	return func(code int) bool {
		for _, r := range parsed {
			if r.lower <= code && code <= r.upper {
				return true
			}
		}
		return false
	}, nil
}
