package analysis

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Numeric tags apply to decimals through their float value
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterStructValidation(validateMigration, MigrationRecord{})
	return v
}

func validateMigration(sl validator.StructLevel) {
	m := sl.Current().Interface().(MigrationRecord)
	if m.Origin != "" && m.Destination != "" && strings.EqualFold(m.Origin, m.Destination) {
		sl.ReportError(m.Destination, "destination", "Destination", "nefield", "origin")
	}
}

// ValidateInputs validates and normalizes every supplied domain. The input is
// never modified; the returned value holds deep copies.
func ValidateInputs(in *DataInputs) (*DataInputs, error) {
	out := &DataInputs{}
	if in == nil {
		return out, nil
	}
	var err error
	if in.Economic != nil {
		if out.Economic, err = ValidateEconomic(in.Economic); err != nil {
			return nil, err
		}
	}
	if in.Social != nil {
		if out.Social, err = ValidateSocial(in.Social); err != nil {
			return nil, err
		}
	}
	if in.Technological != nil {
		if out.Technological, err = ValidateTechnological(in.Technological); err != nil {
			return nil, err
		}
	}
	if in.Political != nil {
		if out.Political, err = ValidatePolitical(in.Political); err != nil {
			return nil, err
		}
	}
	if in.Psychological != nil {
		if out.Psychological, err = ValidatePsychological(in.Psychological); err != nil {
			return nil, err
		}
	}
	if in.SocialMedia != nil {
		if out.SocialMedia, err = ValidateSocialMedia(in.SocialMedia); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ValidateEconomic(in *EconomicData) (*EconomicData, error) {
	out := &EconomicData{
		TradeData: normalize(in.TradeData, func(r *TradeRecord) {
			trimObservation(&r.Observation)
			r.Partner = strings.TrimSpace(r.Partner)
			r.Commodity = strings.TrimSpace(r.Commodity)
		}),
		BusinessMetrics: normalize(in.BusinessMetrics, func(r *BusinessMetric) {
			trimObservation(&r.Observation)
			r.Sector = strings.TrimSpace(r.Sector)
		}),
		MarketIndicators: normalize(in.MarketIndicators, func(r *MarketIndicator) {
			trimObservation(&r.Observation)
			r.Name = strings.TrimSpace(r.Name)
		}),
	}
	return out, check(DomainEconomic, out)
}

func ValidateSocial(in *SocialData) (*SocialData, error) {
	out := &SocialData{
		PopulationProfiles: normalize(in.PopulationProfiles, func(r *PopulationProfile) {
			trimObservation(&r.Observation)
		}),
		MigrationData: normalize(in.MigrationData, func(r *MigrationRecord) {
			trimObservation(&r.Observation)
			r.Origin = strings.TrimSpace(r.Origin)
			r.Destination = strings.TrimSpace(r.Destination)
		}),
		SocialCohesionMetrics: normalize(in.SocialCohesionMetrics, func(r *CohesionMetric) {
			trimObservation(&r.Observation)
		}),
	}
	return out, check(DomainSocial, out)
}

func ValidateTechnological(in *TechnologicalData) (*TechnologicalData, error) {
	out := &TechnologicalData{
		TechnologyAdoption: normalize(in.TechnologyAdoption, func(r *AdoptionRecord) {
			trimObservation(&r.Observation)
			r.Technology = strings.TrimSpace(r.Technology)
		}),
		InnovationMetrics: normalize(in.InnovationMetrics, func(r *InnovationMetric) {
			trimObservation(&r.Observation)
		}),
		ResearchData: normalize(in.ResearchData, func(r *ResearchRecord) {
			trimObservation(&r.Observation)
			r.Project = strings.TrimSpace(r.Project)
		}),
	}
	return out, check(DomainTechnological, out)
}

func ValidatePolitical(in *PoliticalData) (*PoliticalData, error) {
	out := &PoliticalData{
		GovernanceData: normalize(in.GovernanceData, func(r *GovernanceRecord) {
			trimObservation(&r.Observation)
		}),
		PolicyEffects: normalize(in.PolicyEffects, func(r *PolicyEffect) {
			trimObservation(&r.Observation)
			r.Policy = strings.TrimSpace(r.Policy)
		}),
		SecurityMetrics: normalize(in.SecurityMetrics, func(r *SecurityMetric) {
			trimObservation(&r.Observation)
		}),
	}
	return out, check(DomainPolitical, out)
}

func ValidatePsychological(in *PsychologicalData) (*PsychologicalData, error) {
	out := &PsychologicalData{
		PersonalityProfiles: normalize(in.PersonalityProfiles, func(r *PersonalityProfile) {
			trimObservation(&r.Observation)
		}),
		BehavioralResponses: normalize(in.BehavioralResponses, func(r *BehavioralResponse) {
			trimObservation(&r.Observation)
			r.Stimulus = strings.TrimSpace(r.Stimulus)
		}),
		IntegrationAnalyses: normalize(in.IntegrationAnalyses, func(r *IntegrationAnalysis) {
			trimObservation(&r.Observation)
			r.Group = strings.TrimSpace(r.Group)
		}),
	}
	return out, check(DomainPsychological, out)
}

func ValidateSocialMedia(in *SocialMediaData) (*SocialMediaData, error) {
	out := &SocialMediaData{
		SentimentAnalysis: normalize(in.SentimentAnalysis, func(r *SentimentRecord) {
			trimObservation(&r.Observation)
			r.Topic = strings.TrimSpace(r.Topic)
		}),
		EngagementMetrics: normalize(in.EngagementMetrics, func(r *EngagementMetric) {
			trimObservation(&r.Observation)
			r.Platform = strings.TrimSpace(r.Platform)
		}),
		InfluenceAnalysis: normalize(in.InfluenceAnalysis, func(r *InfluenceRecord) {
			trimObservation(&r.Observation)
			r.Actor = strings.TrimSpace(r.Actor)
		}),
	}
	return out, check(DomainSocialMedia, out)
}

// normalize copies xs, applies fix to each element and stable sorts by period.
func normalize[T Record](xs []T, fix func(*T)) []T {
	if xs == nil {
		return nil
	}
	out := make([]T, len(xs))
	copy(out, xs)
	for i := range out {
		fix(&out[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Observed().Period < out[j].Observed().Period
	})
	return out
}

func trimObservation(o *Observation) {
	o.Entity = strings.TrimSpace(o.Entity)
}

func check(domain Domain, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	return formatValidationError(domain, err)
}

// formatValidationError converts validator errors into a ValidationError with
// per-field messages keyed by wire path, e.g. economic.tradeData[0].exports.
func formatValidationError(domain Domain, err error) error {
	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return errors.NewValidationError("INVALID_DATA_INPUTS",
			fmt.Sprintf("invalid %s data", domain)).WithCause(err)
	}

	fields := make(map[string][]string)
	for _, fe := range validationErrors {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		path = string(domain) + "." + path

		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required"
		case "gte":
			msg = fmt.Sprintf("Minimum value is %s", fe.Param())
		case "lte":
			msg = fmt.Sprintf("Maximum value is %s", fe.Param())
		case "max":
			msg = fmt.Sprintf("Maximum length is %s", fe.Param())
		case "nefield":
			msg = fmt.Sprintf("Must not equal %s", fe.Param())
		default:
			msg = fmt.Sprintf("Failed %s validation", fe.Tag())
		}
		fields[path] = append(fields[path], msg)
	}

	return errors.NewValidationError("INVALID_DATA_INPUTS",
		fmt.Sprintf("invalid %s data: %d field(s) failed validation", domain, len(fields))).
		WithDetails(map[string]interface{}{"domain": string(domain), "fields": fields})
}
