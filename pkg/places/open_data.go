package places

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/metrics"
	"github.com/introduceourtown/townrec/pkg/models"
)

const openDataService = "open_data"

const (
	DefaultOpenDataEndpoint = "http://openapi.seoul.go.kr:8088"
	DefaultOpenDataset      = "SebcArtGalleryKor"
	DefaultOpenDataRows     = 5
)

var _ models.ReferenceProvider = &OpenDataReferences{}

// openDataResponse covers both the dataset document and the bare <RESULT>
// document the API returns for key and range errors.
type openDataResponse struct {
	Result openDataResult `xml:"RESULT"`
	openDataResult
	Rows []openDataRow `xml:"row"`
}

type openDataResult struct {
	Code    string `xml:"CODE"`
	Message string `xml:"MESSAGE"`
}

type openDataRow struct {
	MainKey  string `xml:"MAIN_KEY"`
	Category string `xml:"CATEGORY"`
	Name     string `xml:"KOR_NAME"`
	District string `xml:"KOR_GU"`
	Address  string `xml:"KOR_ADD"`
}

// OpenDataReferences reads a page of the Seoul open data XML API and keeps
// the rows that mention a keyword.
type OpenDataReferences struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	dataset  string
	rows     int
}

func NewOpenDataReferences(cfg *config.Config) *OpenDataReferences {
	rc := cfg.Reference
	if rc.Endpoint == "" {
		rc.Endpoint = DefaultOpenDataEndpoint
	}
	if rc.Dataset == "" {
		rc.Dataset = DefaultOpenDataset
	}
	if rc.MaxRows <= 0 {
		rc.MaxRows = DefaultOpenDataRows
	}

	return &OpenDataReferences{
		client:   resty.NewWithClient(NewTracedHTTPClient(rc.Timeout)),
		endpoint: strings.TrimRight(rc.Endpoint, "/"),
		apiKey:   rc.APIKey,
		dataset:  rc.Dataset,
		rows:     rc.MaxRows,
	}
}

func (o *OpenDataReferences) References(
	ctx context.Context,
	keywords []string,
) (refs []models.ReferencePlace, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(openDataService, start, err) }()

	resp, err := o.client.R().
		SetContext(ctx).
		Get(o.pageURL())
	if err != nil {
		return nil, models.NewUpstreamSearchError(openDataService, "open data request failed", err)
	}
	if resp.IsError() {
		return nil, models.NewUpstreamSearchError(
			openDataService,
			"open data request failed",
			fmt.Errorf("status code %d", resp.StatusCode()),
		)
	}

	var body openDataResponse
	if err := xml.Unmarshal(resp.Body(), &body); err != nil {
		return nil, models.NewUpstreamSearchError(openDataService, "invalid open data response", err)
	}
	status := body.Result
	if status.Code == "" {
		status = body.openDataResult
	}
	// INFO-000 is success, INFO-200 is an empty page
	switch status.Code {
	case "", "INFO-000", "INFO-200":
	default:
		return nil, models.NewUpstreamSearchError(
			openDataService,
			"open data request failed",
			fmt.Errorf("%s: %s", status.Code, status.Message),
		)
	}

	refs = []models.ReferencePlace{}
	for _, row := range body.Rows {
		if !mentionsAny(row, keywords) {
			continue
		}
		refs = append(refs, models.ReferencePlace{
			District: strings.TrimSpace(row.District),
			Name:     strings.TrimSpace(row.Name),
			Address:  strings.TrimSpace(row.Address),
		})
	}
	return refs, nil
}

// pageURL is {endpoint}/{key}/xml/{dataset}/1/{rows}/
func (o *OpenDataReferences) pageURL() string {
	return strings.Join([]string{
		o.endpoint,
		url.PathEscape(o.apiKey),
		"xml",
		url.PathEscape(o.dataset),
		"1",
		strconv.Itoa(o.rows),
		"",
	}, "/")
}

func mentionsAny(row openDataRow, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(row.Name, k) || strings.Contains(row.Address, k) {
			return true
		}
	}
	return false
}
