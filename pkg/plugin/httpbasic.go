package plugin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPBasicOptions configures the http.basic reference plugin. It covers the
// subset of the original probe's options relevant to a Basic-Auth check:
// success codes, method, headers, user agent, redirect following and an
// optional upstream proxy.
type HTTPBasicOptions struct {
	SuccessCodes    []int
	UserAgent       string
	Method          string
	Headers         []string
	FollowRedirects bool
	Proxy           string
}

// Validate fills in defaults for an unset method (GET), success codes (200)
// and user agent. It always returns nil.
func (o *HTTPBasicOptions) Validate() error {
	if o.Method == "" {
		o.Method = http.MethodGet
	}
	if len(o.SuccessCodes) == 0 {
		o.SuccessCodes = []int{http.StatusOK}
	}
	if o.UserAgent == "" {
		o.UserAgent = "bruteloom"
	}
	return nil
}

// HTTPBasic is a reference plugin that probes HTTP Basic-Auth endpoints.
type HTTPBasic struct{}

// NewHTTPBasic builds the http.basic reference plugin.
func NewHTTPBasic() *HTTPBasic { return &HTTPBasic{} }

func (HTTPBasic) ID() string          { return "http.basic" }
func (HTTPBasic) DefaultPort() int    { return 80 }
func (HTTPBasic) SingleMatch() bool   { return false }
func (HTTPBasic) NewOptions() Options { return &HTTPBasicOptions{} }

func (HTTPBasic) RequiredDimensions() []Dimension {
	return []Dimension{DimensionUsername, DimensionPassword, DimensionTarget, DimensionPort}
}

func (p HTTPBasic) Attempt(ctx context.Context, creds Credentials, opts Options) (*Loot, error) {
	o, ok := opts.(*HTTPBasicOptions)
	if !ok {
		return nil, NewFatalError(fmt.Errorf("http.basic: wrong options type %T", opts))
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("building cookie jar: %w", err))
	}

	client := &http.Client{Jar: jar}
	if o.Proxy != "" {
		proxyURL, err := neturl.Parse(o.Proxy)
		if err != nil {
			return nil, NewFatalError(fmt.Errorf("http.basic: invalid proxy %q: %w", o.Proxy, err))
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	if !o.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	url := fmt.Sprintf("http://%s:%d/", creds.Target, creds.Port)
	req, err := http.NewRequestWithContext(ctx, o.Method, url, nil)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("building request: %w", err))
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("User-Agent", o.UserAgent)
	for _, h := range o.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, NewFatalError(fmt.Errorf("http.basic: malformed header option %q, want \"Name: Value\"", h))
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, NewTransientError(err)
	}
	defer resp.Body.Close()

	for _, code := range o.SuccessCodes {
		if resp.StatusCode == code {
			return &Loot{
				Plugin: p.ID(),
				Target: creds.Target,
				Port:   creds.Port,
				Credentials: map[string]string{
					"username": creds.Username,
					"password": creds.Password,
				},
				Extra:     map[string]interface{}{"status_code": resp.StatusCode},
				Timestamp: time.Now(),
			}, nil
		}
	}
	return nil, nil
}
