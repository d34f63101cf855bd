package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentation = "github.com/raushankrgupta/tailor-connect/recommend"

// FailureMessage is shown to users for every recommendation failure.
const FailureMessage = "An unexpected error occurred on the server. Please try again later."

var ErrInvalidResponse = errors.New("model response does not match the tailor schema")

// Generator sends a prompt to a generative model and returns its raw JSON answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recommender turns a customer's request into an ordered tailor list.
type Recommender struct {
	gen      Generator
	log      *zap.Logger
	outcomes metric.Int64Counter
}

func New(gen Generator, log *zap.Logger) *Recommender {
	outcomes, err := otel.Meter(instrumentation).Int64Counter("tailor.recommendations",
		metric.WithDescription("Recommendation requests by outcome"))
	if err != nil {
		log.Warn("failed to create recommendation counter", zap.Error(err))
	}
	return &Recommender{gen: gen, log: log, outcomes: outcomes}
}

// Recommend asks the model for tailors matching req. An empty list is a successful answer. Any
// entry that does not satisfy the candidate schema fails the whole call.
func (r *Recommender) Recommend(ctx context.Context, req models.RecommendationRequest) ([]models.TailorCandidate, error) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, "recommend.Recommend")
	defer span.End()
	span.SetAttributes(attribute.String("garment.type", req.GarmentType))

	raw, err := r.gen.Generate(ctx, BuildPrompt(req))
	if err != nil {
		r.record(ctx, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		r.log.Error("recommendation generation failed", zap.Error(err))
		return nil, apperrors.Recommendation(FailureMessage, err)
	}

	candidates, err := Decode(raw)
	if err != nil {
		r.record(ctx, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid response")
		r.log.Error("recommendation response rejected", zap.Error(err))
		return nil, apperrors.Recommendation(FailureMessage, err)
	}

	if len(candidates) == 0 {
		r.record(ctx, "empty")
	} else {
		r.record(ctx, "ok")
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	return candidates, nil
}

func (r *Recommender) record(ctx context.Context, outcome string) {
	if r.outcomes == nil {
		return
	}
	r.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// BuildPrompt fills the fixed recommendation template. Free text is reduced to plain text first.
func BuildPrompt(req models.RecommendationRequest) string {
	return fmt.Sprintf(`You are an expert tailor recommendation agent. Given the customer's preferences for garment type, design details, and location, recommend a list of tailors that best match their needs. Prioritize tailors who are near the customer and have high ratings.

Garment Type: %s
Design Details: %s
Customer Location: %s

Return a JSON array of tailor objects, sorted by relevance and proximity. Each tailor object should include tailorId, name, shopName, location, rating, garmentSpecialties, designExpertise, and distance.`,
		utils.PlainText(req.GarmentType),
		utils.PlainText(req.DesignDetails),
		utils.PlainText(req.CustomerLocation),
	)
}

// candidate mirrors TailorCandidate with presence tracking for every field.
type candidate struct {
	TailorID           *string  `json:"tailorId" validate:"required,min=1"`
	Name               *string  `json:"name" validate:"required"`
	ShopName           *string  `json:"shopName" validate:"required"`
	Location           *string  `json:"location" validate:"required"`
	Rating             *float64 `json:"rating" validate:"required,gte=0,lte=5"`
	GarmentSpecialties []string `json:"garmentSpecialties" validate:"required"`
	DesignExpertise    []string `json:"designExpertise" validate:"required"`
	Distance           *float64 `json:"distance" validate:"required,gte=0"`
}

var validate = validator.New()

// Decode parses a model answer, rejecting it as a whole unless every entry is complete and valid
// and no tailorId repeats.
func Decode(raw string) ([]models.TailorCandidate, error) {
	body := bytes.TrimSpace([]byte(stripFence(raw)))
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}

	var entries []candidate
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidResponse)
	}

	out := make([]models.TailorCandidate, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidResponse, i, err)
		}
		if seen[*e.TailorID] {
			return nil, fmt.Errorf("%w: duplicate tailorId %q", ErrInvalidResponse, *e.TailorID)
		}
		seen[*e.TailorID] = true
		out = append(out, models.TailorCandidate{
			TailorID:           *e.TailorID,
			Name:               *e.Name,
			ShopName:           *e.ShopName,
			Location:           *e.Location,
			Rating:             *e.Rating,
			GarmentSpecialties: e.GarmentSpecialties,
			DesignExpertise:    e.DesignExpertise,
			Distance:           *e.Distance,
		})
	}
	return out, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
