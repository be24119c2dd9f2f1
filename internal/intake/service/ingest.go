// Package service orchestrates the ingest pipeline: validation, geo
// enrichment, classification, deception assembly, and persistence.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/project-guardian/guardian/internal/classify"
	"github.com/project-guardian/guardian/internal/deception"
	"github.com/project-guardian/guardian/internal/geo"
	"github.com/project-guardian/guardian/internal/intake/model"
)

// eventStore is the persistence interface for interaction records.
// *repository.EventRepository satisfies this interface.
type eventStore interface {
	Insert(ctx context.Context, rec *model.InteractionRecord, verdict classify.Verdict) error
}

// artifactStore persists deception artifacts. *repository.DeceptionRepository
// satisfies this interface.
type artifactStore interface {
	Insert(ctx context.Context, art *deception.Artifact) error
}

// usbStore persists USB beacons. *repository.USBRepository satisfies this.
type usbStore interface {
	Insert(ctx context.Context, beacon *model.USBBeacon) error
}

// assembler produces the deception artifact. *deception.Assembler satisfies this.
type assembler interface {
	Assemble(ctx context.Context, rec *model.InteractionRecord, verdict classify.Verdict) *deception.Artifact
}

// PersistenceRecorder is an optional callback for recording insert outcomes,
// wired to Prometheus by the caller.
type PersistenceRecorder func(table string, ok bool)

// Summary is the ingest response body.
type Summary struct {
	Status                string   `json:"status"`
	Message               string   `json:"message"`
	AnalysisSummary       string   `json:"analysis_summary"`
	IdentifiedTTP         []string `json:"identified_ttp"`
	DisinformationPayload Payload  `json:"disinformation_payload"`
}

// Payload is the deception portion of the summary.
type Payload struct {
	Content       string         `json:"content"`
	ContentType   string         `json:"content_type"`
	TargetContext map[string]any `json:"target_context"`
	AIModel       string         `json:"ai_model"`
}

// fallbackTTP labels responses where no heuristic indicator fired.
const fallbackTTP = "LLM_Generated"

// IngestService runs the pipeline for one honeypot event.
type IngestService struct {
	events    eventStore
	artifacts artifactStore
	usb       usbStore
	assembler assembler
	resolver  geo.Resolver
	limits    model.Limits
	onPersist PersistenceRecorder
	logger    *zap.Logger
}

// NewIngestService wires the pipeline. resolver may be nil to disable GeoIP
// enrichment.
func NewIngestService(
	events eventStore,
	artifacts artifactStore,
	usb usbStore,
	asm assembler,
	limits model.Limits,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		events:    events,
		artifacts: artifacts,
		usb:       usb,
		assembler: asm,
		resolver:  geo.NoopResolver{},
		limits:    limits,
		logger:    logger,
	}
}

// SetGeoResolver configures GeoIP enrichment for records that arrive without
// geo data.
func (s *IngestService) SetGeoResolver(r geo.Resolver) {
	if r != nil {
		s.resolver = r
	}
}

// SetPersistenceRecorder configures the metrics callback.
func (s *IngestService) SetPersistenceRecorder(fn PersistenceRecorder) {
	s.onPersist = fn
}

// Ingest validates the request, classifies the record, assembles the
// deception payload, and persists both. Persistence failures are logged and
// counted but never fail the call: the analysis and deception result is
// considered valuable even when storage is degraded.
func (s *IngestService) Ingest(ctx context.Context, req *model.EventRequest) (*Summary, error) {
	rec, err := req.ToRecord(s.limits)
	if err != nil {
		return nil, err
	}

	s.enrichGeo(rec)
	rec.BackfillGeo()
	rec.StripBannerNUL()

	s.logger.Info("honeypot event received",
		zap.String("source_ip", rec.SourceIP.String()),
		zap.String("kind", rec.HoneypotKind),
		zap.Any("interaction_data", Redact(rec.InteractionData)),
	)

	verdict := classify.Classify(rec)
	artifact := s.assembler.Assemble(ctx, rec, verdict)

	if err := s.events.Insert(ctx, rec, verdict); err != nil {
		s.logger.Error("persist attacker event failed", zap.Error(err))
		s.recordPersist("attacker_events", false)
	} else {
		s.recordPersist("attacker_events", true)
	}

	if err := s.artifacts.Insert(ctx, artifact); err != nil {
		s.logger.Error("persist deception content failed", zap.Error(err))
		s.recordPersist("deception_content", false)
	} else {
		s.recordPersist("deception_content", true)
	}

	ttp := verdict.Indicators
	if len(ttp) == 0 {
		ttp = []string{fallbackTTP}
	}

	return &Summary{
		Status:          "success",
		Message:         "Log processed and disinformation generated.",
		AnalysisSummary: "LLM-based analysis completed.",
		IdentifiedTTP:   ttp,
		DisinformationPayload: Payload{
			Content:       artifact.Content,
			ContentType:   artifact.ContentType,
			TargetContext: artifact.TargetContext,
			AIModel:       artifact.AIModel,
		},
	}, nil
}

// ReceiveBeacon persists a USB-drop beacon. Unlike Ingest there is no
// analysis result to protect, so storage errors surface to the caller.
func (s *IngestService) ReceiveBeacon(ctx context.Context, beacon *model.USBBeacon) error {
	s.logger.Info("usb beacon received",
		zap.String("usb_stick_id", beacon.USBStickID),
		zap.String("host", beacon.Username+"@"+beacon.Hostname),
		zap.String("payload", beacon.PayloadName),
	)

	err := s.usb.Insert(ctx, beacon)
	s.recordPersist("usb_drop_events", err == nil)
	return err
}

// enrichGeo fills the geo bag from the resolver when the sensor sent none.
func (s *IngestService) enrichGeo(rec *model.InteractionRecord) {
	if rec.GeoLocation != nil || rec.CountryName != "" {
		return
	}
	loc, ok := s.resolver.Lookup(rec.SourceIP)
	if !ok {
		return
	}
	rec.GeoLocation = map[string]any{
		"country_code": loc.CountryCode,
		"country_name": loc.CountryName,
		"region_code":  loc.RegionCode,
		"region_name":  loc.RegionName,
		"city":         loc.City,
		"latitude":     loc.Latitude,
		"longitude":    loc.Longitude,
		"timezone":     loc.Timezone,
	}
}

func (s *IngestService) recordPersist(table string, ok bool) {
	if s.onPersist != nil {
		s.onPersist(table, ok)
	}
}
