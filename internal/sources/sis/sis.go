package sis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"courserag/internal/domain"
	"courserag/internal/sources/filecache"
)

// maxPages caps per-subject pagination as a safety limit.
const maxPages = 20

// Client fetches catalog sections from a SIS-style class search API, one
// page at a time, with a term+subject keyed file cache in front.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *filecache.Store
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Cache   *filecache.Store
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		cache:   cfg.Cache,
	}
}

// FetchSections returns all sections of one subject in one term,
// cache-first unless forceRefresh is set. Fetched results are written back
// to the cache.
func (c *Client) FetchSections(ctx context.Context, term, subject string, forceRefresh bool) ([]domain.Section, error) {
	key := "sis_" + term + "_" + subject
	if c.cache != nil && !forceRefresh && c.cache.Has(key) {
		var sections []domain.Section
		if err := c.cache.Load(key, &sections); err == nil {
			return sections, nil
		}
		// Unreadable cache falls through to a fresh fetch.
	}

	var sections []domain.Section
	for page := 1; page <= maxPages; page++ {
		classes, err := c.fetchPage(ctx, term, subject, page)
		if err != nil {
			return nil, err
		}
		if len(classes) == 0 {
			break
		}
		for _, raw := range classes {
			sections = append(sections, raw.toSection())
		}
	}

	if c.cache != nil && len(sections) > 0 {
		if err := c.cache.Save(key, sections); err != nil {
			return sections, fmt.Errorf("save catalog cache: %w", err)
		}
	}
	return sections, nil
}

func (c *Client) fetchPage(ctx context.Context, term, subject string, page int) ([]rawClass, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("subject", subject)
	q.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch %s %s page %d: %w", subject, term, page, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch %s %s page %d: status %s", subject, term, page, resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog read %s %s page %d: %w", subject, term, page, err)
	}

	// The API serves either a bare class array or a {"classes": [...]} object.
	var classes []rawClass
	if err := json.Unmarshal(payload, &classes); err == nil {
		return classes, nil
	}
	var envelope struct {
		Classes []rawClass `json:"classes"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("catalog decode %s %s page %d: %w", subject, term, page, err)
	}
	return envelope.Classes, nil
}

type rawClass struct {
	Subject         string      `json:"subject"`
	CatalogNumber   string      `json:"catalog_nbr"`
	SectionNumber   string      `json:"class_section"`
	Term            string      `json:"strm"`
	Title           string      `json:"descr"`
	ClassNumber     json.Number `json:"class_nbr"`
	ClassCapacity   int         `json:"class_capacity"`
	EnrollmentTotal int         `json:"enrollment_total"`
	Instructors     []struct {
		Name string `json:"name"`
	} `json:"instructors"`
	Meetings []struct {
		Days      string `json:"days"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Facility  string `json:"facility_descr"`
	} `json:"meetings"`
}

func (r rawClass) toSection() domain.Section {
	sec := domain.Section{
		Subject:       r.Subject,
		CatalogNumber: r.CatalogNumber,
		SectionNumber: r.SectionNumber,
		Term:          r.Term,
		Title:         r.Title,
		ClassNumber:   r.ClassNumber.String(),
		Capacity:      r.ClassCapacity,
		Enrolled:      r.EnrollmentTotal,
		Instructor:    "Staff",
	}
	if len(r.Instructors) > 0 && r.Instructors[0].Name != "" {
		sec.Instructor = r.Instructors[0].Name
	}
	if len(r.Meetings) > 0 {
		sec.Days = r.Meetings[0].Days
		sec.StartTime = r.Meetings[0].StartTime
		sec.EndTime = r.Meetings[0].EndTime
		sec.Location = r.Meetings[0].Facility
	}
	return sec
}
