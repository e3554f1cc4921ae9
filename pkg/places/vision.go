package places

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/metrics"
	"github.com/introduceourtown/townrec/pkg/models"
)

const visionService = "vision"

var _ models.LabelDetector = &VisionLabelDetector{}

// VisionLabelDetector labels images with the Cloud Vision API.
type VisionLabelDetector struct {
	svc     *vision.Service
	timeout time.Duration
}

func NewVisionLabelDetector(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*VisionLabelDetector, error) {
	switch {
	case cfg.Vision.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.Vision.CredentialsFile))
	case cfg.Vision.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.Vision.APIKey))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return &VisionLabelDetector{svc: svc, timeout: cfg.Vision.Timeout}, nil
}

func (d *VisionLabelDetector) DetectLabels(ctx context.Context, image []byte) (labels []string, err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() { metrics.ObserveUpstream(visionService, start, err) }()

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{{Type: "LABEL_DETECTION"}},
		}},
	}

	resp, err := d.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, models.NewUpstreamSearchError(visionService, "label detection failed", err)
	}
	if len(resp.Responses) == 0 {
		return []string{}, nil
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return nil, models.NewUpstreamSearchError(
			visionService,
			"label detection failed",
			fmt.Errorf("status %d: %s", r.Error.Code, r.Error.Message),
		)
	}

	labels = make([]string, 0, len(r.LabelAnnotations))
	for _, a := range r.LabelAnnotations {
		if a.Description != "" {
			labels = append(labels, a.Description)
		}
	}
	return labels, nil
}
