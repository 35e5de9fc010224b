// Package livescrape looks a flight up through a web search page and pulls a
// few facts out of the returned HTML. The heuristics are best-effort.
package livescrape

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/refdata"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

const maxBodyBytes = 2 << 20

type Client struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
}

// New returns a client; an empty baseURL leaves the source unconfigured.
func New(baseURL, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "FlightBox/1.0 (+https://github.com/BearBump/FlightBox)"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Name() models.Source { return models.SourceLiveScrape }

func (c *Client) Lookup(ctx context.Context, flightNumber, date string) (*flightsource.PartialFlight, error) {
	if c.baseURL == "" {
		return nil, flightsource.ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = "/search"
	query := flightNumber + " flight status"
	if date != "" {
		query = flightNumber + " " + date + " flight status"
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, flightsource.Transient(errors.Wrap(err, "do request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, flightsource.StatusError("livescrape", resp.StatusCode)
	}

	text, err := visibleText(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}

	p := extract(text)
	p.FlightNumber = flightNumber
	if !p.HasRoute() && p.AircraftType == "" {
		return nil, flightsource.ErrNotFound
	}
	return p, nil
}

// visibleText concatenates text nodes outside script and style elements.
func visibleText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if isHidden(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHidden(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			t := strings.TrimSpace(string(z.Text()))
			if t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		}
	}
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript"
}

var (
	codeRe     = regexp.MustCompile(`\(([A-Z]{3})\)|\b([A-Z]{3})\s*(?:→|->|–|-|to)\s*([A-Z]{3})\b`)
	aircraftRe = regexp.MustCompile(`(?i)\b(Airbus\s+A3\d\d(?:[- ]?\d{3})?(?:neo|ceo)?|Boeing\s+7[0-8]7(?:[- ]?(?:MAX\s?\d+|\d{1,3}(?:ER|LR)?))?|Embraer\s+E?\d{3}|ATR\s?\d{2}(?:-\d{3})?|(?:De Havilland|Bombardier)\s+(?:Dash\s?8|Q400|CRJ\s?\d{3}))`)
)

var statusKeywords = []struct {
	needle string
	status models.FlightStatus
}{
	{"cancelled", models.FlightStatusCancelled},
	{"canceled", models.FlightStatusCancelled},
	{"landed", models.FlightStatusLanded},
	{"arrived", models.FlightStatusLanded},
	{"en route", models.FlightStatusAirborne},
	{"in air", models.FlightStatusAirborne},
	{"airborne", models.FlightStatusAirborne},
	{"departed", models.FlightStatusDeparted},
	{"boarding", models.FlightStatusBoarding},
	{"scheduled", models.FlightStatusScheduled},
	{"on time", models.FlightStatusScheduled},
}

// extract only trusts airport codes present in the reference tables.
func extract(text string) *flightsource.PartialFlight {
	p := &flightsource.PartialFlight{Source: models.SourceLiveScrape}

	var codes []string
	for _, m := range codeRe.FindAllStringSubmatch(text, -1) {
		for _, c := range m[1:] {
			if c == "" {
				continue
			}
			if _, ok := refdata.LookupAirport(c); !ok {
				continue
			}
			if len(codes) > 0 && codes[len(codes)-1] == c {
				continue
			}
			codes = append(codes, c)
		}
		if len(codes) >= 2 {
			break
		}
	}
	if len(codes) >= 2 {
		p.DepartureCode, p.ArrivalCode = codes[0], codes[1]
	}

	if m := aircraftRe.FindString(text); m != "" {
		p.AircraftType = strings.Join(strings.Fields(m), " ")
	}

	lower := strings.ToLower(text)
	for _, k := range statusKeywords {
		if strings.Contains(lower, k.needle) {
			p.Status = k.status
			break
		}
	}
	if strings.Contains(lower, "delayed") {
		p.Delayed = true
	}
	return p
}
