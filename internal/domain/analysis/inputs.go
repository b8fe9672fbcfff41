package analysis

import (
	"github.com/shopspring/decimal"
)

// Domain names a data domain. The values match the DataInputs JSON keys.
type Domain string

const (
	DomainEconomic      Domain = "economic"
	DomainSocial        Domain = "social"
	DomainTechnological Domain = "technological"
	DomainPolitical     Domain = "political"
	DomainPsychological Domain = "psychological"
	DomainSocialMedia   Domain = "socialMedia"
)

// Domains is the canonical domain order. Findings are always assembled in
// this order, with cross-domain correlation results appended last.
var Domains = []Domain{
	DomainEconomic,
	DomainSocial,
	DomainTechnological,
	DomainPolitical,
	DomainPsychological,
	DomainSocialMedia,
}

// Observation locates a record in the analysed population and in time.
type Observation struct {
	Entity string `json:"entity,omitempty" validate:"max=200"`
	Period int    `json:"period" validate:"gte=0"`
}

// Observed returns the record's observation coordinates.
func (o Observation) Observed() Observation { return o }

// Record is implemented by every typed domain record.
type Record interface {
	Observed() Observation
	// Score is a 0..1 health indicator, higher is healthier.
	Score() float64
}

// Stream is one named record series of a domain, e.g. economic.tradeData.
type Stream struct {
	Domain  Domain
	Name    string
	Records []Record
}

// DataInputs carries the per-domain records of a request. A nil domain is
// skipped entirely.
type DataInputs struct {
	Economic      *EconomicData      `json:"economic,omitempty"`
	Social        *SocialData        `json:"social,omitempty"`
	Technological *TechnologicalData `json:"technological,omitempty"`
	Political     *PoliticalData     `json:"political,omitempty"`
	Psychological *PsychologicalData `json:"psychological,omitempty"`
	SocialMedia   *SocialMediaData   `json:"socialMedia,omitempty"`
}

// Has reports whether the domain was supplied.
func (in *DataInputs) Has(d Domain) bool {
	switch d {
	case DomainEconomic:
		return in.Economic != nil
	case DomainSocial:
		return in.Social != nil
	case DomainTechnological:
		return in.Technological != nil
	case DomainPolitical:
		return in.Political != nil
	case DomainPsychological:
		return in.Psychological != nil
	case DomainSocialMedia:
		return in.SocialMedia != nil
	}
	return false
}

// Present returns the supplied domains in canonical order.
func (in *DataInputs) Present() []Domain {
	var out []Domain
	for _, d := range Domains {
		if in.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Filter returns a shallow copy keeping only the given domains.
func (in *DataInputs) Filter(keep ...Domain) *DataInputs {
	out := &DataInputs{}
	for _, d := range keep {
		switch d {
		case DomainEconomic:
			out.Economic = in.Economic
		case DomainSocial:
			out.Social = in.Social
		case DomainTechnological:
			out.Technological = in.Technological
		case DomainPolitical:
			out.Political = in.Political
		case DomainPsychological:
			out.Psychological = in.Psychological
		case DomainSocialMedia:
			out.SocialMedia = in.SocialMedia
		}
	}
	return out
}

// Streams returns the record series of a domain in declaration order. Empty
// series are included so callers can reason about completeness.
func (in *DataInputs) Streams(d Domain) []Stream {
	switch d {
	case DomainEconomic:
		if e := in.Economic; e != nil {
			return []Stream{
				stream(d, "tradeData", e.TradeData),
				stream(d, "businessMetrics", e.BusinessMetrics),
				stream(d, "marketIndicators", e.MarketIndicators),
			}
		}
	case DomainSocial:
		if s := in.Social; s != nil {
			return []Stream{
				stream(d, "populationProfiles", s.PopulationProfiles),
				stream(d, "migrationData", s.MigrationData),
				stream(d, "socialCohesionMetrics", s.SocialCohesionMetrics),
			}
		}
	case DomainTechnological:
		if t := in.Technological; t != nil {
			return []Stream{
				stream(d, "technologyAdoption", t.TechnologyAdoption),
				stream(d, "innovationMetrics", t.InnovationMetrics),
				stream(d, "researchData", t.ResearchData),
			}
		}
	case DomainPolitical:
		if p := in.Political; p != nil {
			return []Stream{
				stream(d, "governanceData", p.GovernanceData),
				stream(d, "policyEffects", p.PolicyEffects),
				stream(d, "securityMetrics", p.SecurityMetrics),
			}
		}
	case DomainPsychological:
		if p := in.Psychological; p != nil {
			return []Stream{
				stream(d, "personalityProfiles", p.PersonalityProfiles),
				stream(d, "behavioralResponses", p.BehavioralResponses),
				stream(d, "integrationAnalyses", p.IntegrationAnalyses),
			}
		}
	case DomainSocialMedia:
		if s := in.SocialMedia; s != nil {
			return []Stream{
				stream(d, "sentimentAnalysis", s.SentimentAnalysis),
				stream(d, "engagementMetrics", s.EngagementMetrics),
				stream(d, "influenceAnalysis", s.InfluenceAnalysis),
			}
		}
	}
	return nil
}

// CountDataPoints returns the number of records across all domains.
func (in *DataInputs) CountDataPoints() int {
	n := 0
	for _, d := range Domains {
		for _, s := range in.Streams(d) {
			n += len(s.Records)
		}
	}
	return n
}

func stream[T Record](d Domain, name string, xs []T) Stream {
	records := make([]Record, len(xs))
	for i, x := range xs {
		records[i] = x
	}
	return Stream{Domain: d, Name: name, Records: records}
}

// Economic records

type EconomicData struct {
	TradeData        []TradeRecord     `json:"tradeData,omitempty" validate:"dive"`
	BusinessMetrics  []BusinessMetric  `json:"businessMetrics,omitempty" validate:"dive"`
	MarketIndicators []MarketIndicator `json:"marketIndicators,omitempty" validate:"dive"`
}

type TradeRecord struct {
	Observation
	Partner   string          `json:"partner,omitempty" validate:"max=200"`
	Commodity string          `json:"commodity,omitempty" validate:"max=200"`
	Exports   decimal.Decimal `json:"exports" validate:"gte=0"`
	Imports   decimal.Decimal `json:"imports" validate:"gte=0"`
}

// Score is the export share of total trade volume; balanced trade scores 0.5.
func (r TradeRecord) Score() float64 {
	total := r.Exports.Add(r.Imports)
	if total.IsZero() {
		return 0.5
	}
	share, _ := r.Exports.Div(total).Float64()
	return clamp01(share)
}

type BusinessMetric struct {
	Observation
	Sector     string          `json:"sector,omitempty" validate:"max=200"`
	Revenue    decimal.Decimal `json:"revenue" validate:"gte=0"`
	GrowthRate float64         `json:"growthRate" validate:"gte=-1,lte=10"`
	Employment float64         `json:"employment" validate:"gte=0,lte=1"`
}

func (r BusinessMetric) Score() float64 {
	return clamp01(0.5*clamp01(0.5+r.GrowthRate/2) + 0.5*r.Employment)
}

type MarketIndicator struct {
	Observation
	Name       string  `json:"name" validate:"required,max=200"`
	Value      float64 `json:"value"`
	Change     float64 `json:"change" validate:"gte=-1,lte=10"`
	Volatility float64 `json:"volatility" validate:"gte=0,lte=1"`
}

func (r MarketIndicator) Score() float64 {
	return clamp01((0.5 + r.Change/2) * (1 - 0.5*r.Volatility))
}

// Social records

type SocialData struct {
	PopulationProfiles    []PopulationProfile `json:"populationProfiles,omitempty" validate:"dive"`
	MigrationData         []MigrationRecord   `json:"migrationData,omitempty" validate:"dive"`
	SocialCohesionMetrics []CohesionMetric    `json:"socialCohesionMetrics,omitempty" validate:"dive"`
}

type PopulationProfile struct {
	Observation
	Population int64   `json:"population" validate:"gte=0"`
	GrowthRate float64 `json:"growthRate" validate:"gte=-1,lte=10"`
	MedianAge  float64 `json:"medianAge" validate:"gte=0,lte=150"`
}

func (r PopulationProfile) Score() float64 {
	return clamp01(0.5 + 5*r.GrowthRate)
}

type MigrationRecord struct {
	Observation
	Origin          string  `json:"origin,omitempty" validate:"max=200"`
	Destination     string  `json:"destination,omitempty" validate:"max=200"`
	Migrants        int64   `json:"migrants" validate:"gte=0"`
	IntegrationRate float64 `json:"integrationRate" validate:"gte=0,lte=1"`
}

func (r MigrationRecord) Score() float64 { return clamp01(r.IntegrationRate) }

type CohesionMetric struct {
	Observation
	Index  float64 `json:"index" validate:"gte=0,lte=1"`
	Trust  float64 `json:"trust" validate:"gte=0,lte=1"`
	Unrest float64 `json:"unrest" validate:"gte=0,lte=1"`
}

func (r CohesionMetric) Score() float64 {
	return clamp01((r.Index + r.Trust + (1 - r.Unrest)) / 3)
}

// Technological records

type TechnologicalData struct {
	TechnologyAdoption []AdoptionRecord   `json:"technologyAdoption,omitempty" validate:"dive"`
	InnovationMetrics  []InnovationMetric `json:"innovationMetrics,omitempty" validate:"dive"`
	ResearchData       []ResearchRecord   `json:"researchData,omitempty" validate:"dive"`
}

type AdoptionRecord struct {
	Observation
	Technology   string  `json:"technology" validate:"required,max=200"`
	AdoptionRate float64 `json:"adoptionRate" validate:"gte=0,lte=1"`
}

func (r AdoptionRecord) Score() float64 { return clamp01(r.AdoptionRate) }

type InnovationMetric struct {
	Observation
	Patents         int64           `json:"patents" validate:"gte=0"`
	RDSpending      decimal.Decimal `json:"rdSpending" validate:"gte=0"`
	InnovationIndex float64         `json:"innovationIndex" validate:"gte=0,lte=1"`
}

func (r InnovationMetric) Score() float64 { return clamp01(r.InnovationIndex) }

type ResearchRecord struct {
	Observation
	Project      string  `json:"project,omitempty" validate:"max=200"`
	Progress     float64 `json:"progress" validate:"gte=0,lte=1"`
	Breakthrough bool    `json:"breakthrough"`
}

func (r ResearchRecord) Score() float64 {
	if r.Breakthrough {
		return clamp01(r.Progress + 0.2)
	}
	return clamp01(r.Progress)
}

// Political records

type PoliticalData struct {
	GovernanceData  []GovernanceRecord `json:"governanceData,omitempty" validate:"dive"`
	PolicyEffects   []PolicyEffect     `json:"policyEffects,omitempty" validate:"dive"`
	SecurityMetrics []SecurityMetric   `json:"securityMetrics,omitempty" validate:"dive"`
}

type GovernanceRecord struct {
	Observation
	Effectiveness float64 `json:"effectiveness" validate:"gte=0,lte=1"`
	Approval      float64 `json:"approval" validate:"gte=0,lte=1"`
	Corruption    float64 `json:"corruption" validate:"gte=0,lte=1"`
}

func (r GovernanceRecord) Score() float64 {
	return clamp01((r.Effectiveness + r.Approval + (1 - r.Corruption)) / 3)
}

type PolicyEffect struct {
	Observation
	Policy  string  `json:"policy" validate:"required,max=200"`
	Impact  float64 `json:"impact" validate:"gte=-1,lte=1"`
	Support float64 `json:"support" validate:"gte=0,lte=1"`
}

func (r PolicyEffect) Score() float64 {
	return clamp01(((r.Impact+1)/2 + r.Support) / 2)
}

type SecurityMetric struct {
	Observation
	ThreatLevel float64 `json:"threatLevel" validate:"gte=0,lte=1"`
	Stability   float64 `json:"stability" validate:"gte=0,lte=1"`
	Incidents   int     `json:"incidents" validate:"gte=0"`
}

func (r SecurityMetric) Score() float64 {
	return clamp01((r.Stability + (1 - r.ThreatLevel)) / 2)
}

// Psychological records

type PsychologicalData struct {
	PersonalityProfiles []PersonalityProfile  `json:"personalityProfiles,omitempty" validate:"dive"`
	BehavioralResponses []BehavioralResponse  `json:"behavioralResponses,omitempty" validate:"dive"`
	IntegrationAnalyses []IntegrationAnalysis `json:"integrationAnalyses,omitempty" validate:"dive"`
}

type PersonalityProfile struct {
	Observation
	Openness          float64 `json:"openness" validate:"gte=0,lte=1"`
	Conscientiousness float64 `json:"conscientiousness" validate:"gte=0,lte=1"`
	Extraversion      float64 `json:"extraversion" validate:"gte=0,lte=1"`
	Agreeableness     float64 `json:"agreeableness" validate:"gte=0,lte=1"`
	Neuroticism       float64 `json:"neuroticism" validate:"gte=0,lte=1"`
}

func (r PersonalityProfile) Score() float64 {
	return clamp01((r.Openness + r.Conscientiousness + r.Extraversion + r.Agreeableness + (1 - r.Neuroticism)) / 5)
}

type BehavioralResponse struct {
	Observation
	Stimulus   string  `json:"stimulus,omitempty" validate:"max=200"`
	Compliance float64 `json:"compliance" validate:"gte=0,lte=1"`
	Resistance float64 `json:"resistance" validate:"gte=0,lte=1"`
}

func (r BehavioralResponse) Score() float64 {
	return clamp01((r.Compliance + (1 - r.Resistance)) / 2)
}

type IntegrationAnalysis struct {
	Observation
	Group            string  `json:"group,omitempty" validate:"max=200"`
	IntegrationScore float64 `json:"integrationScore" validate:"gte=0,lte=1"`
}

func (r IntegrationAnalysis) Score() float64 { return clamp01(r.IntegrationScore) }

// Social media records

type SocialMediaData struct {
	SentimentAnalysis []SentimentRecord  `json:"sentimentAnalysis,omitempty" validate:"dive"`
	EngagementMetrics []EngagementMetric `json:"engagementMetrics,omitempty" validate:"dive"`
	InfluenceAnalysis []InfluenceRecord  `json:"influenceAnalysis,omitempty" validate:"dive"`
}

type SentimentRecord struct {
	Observation
	Topic     string  `json:"topic,omitempty" validate:"max=200"`
	Sentiment float64 `json:"sentiment" validate:"gte=-1,lte=1"`
	Volume    int64   `json:"volume" validate:"gte=0"`
}

func (r SentimentRecord) Score() float64 { return clamp01((r.Sentiment + 1) / 2) }

type EngagementMetric struct {
	Observation
	Platform       string  `json:"platform,omitempty" validate:"max=200"`
	EngagementRate float64 `json:"engagementRate" validate:"gte=0,lte=1"`
	Reach          int64   `json:"reach" validate:"gte=0"`
}

func (r EngagementMetric) Score() float64 { return clamp01(r.EngagementRate) }

type InfluenceRecord struct {
	Observation
	Actor     string  `json:"actor,omitempty" validate:"max=200"`
	Influence float64 `json:"influence" validate:"gte=0,lte=1"`
	Reach     int64   `json:"reach" validate:"gte=0"`
}

func (r InfluenceRecord) Score() float64 { return clamp01(r.Influence) }

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
