package generators

import "github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"

// profile is the insight template for one record stream.
type profile struct {
	stream        string
	topic         string
	category      string
	priority      analysis.Priority
	title         string
	description   string
	confidence    float64
	magnitude     float64
	timeframe     string
	scope         []string
	certainty     float64
	reversibility float64
	cascade       []string
	related       []string
	trendName     string
}

var profiles = map[analysis.Domain][]profile{
	analysis.DomainEconomic: {
		{
			stream: "tradeData", topic: "trade", category: "trend", priority: analysis.PriorityMedium,
			title: "Trade Analysis", description: "Trade patterns analysis",
			confidence: 0.8, magnitude: 60, timeframe: analysis.TimeframeMedium,
			scope: []string{"economic"}, certainty: 80, reversibility: 70,
			cascade: []string{"employment", "supply_chains"}, related: []string{"trade", "economy"},
			trendName: "Trade balance",
		},
		{
			stream: "businessMetrics", topic: "business", category: "pattern", priority: analysis.PriorityMedium,
			title: "Business Metrics Analysis", description: "Business performance and growth analysis",
			confidence: 0.75, magnitude: 55, timeframe: analysis.TimeframeShort,
			scope: []string{"economic"}, certainty: 75, reversibility: 75,
			cascade: []string{"employment"}, related: []string{"business", "economy"},
			trendName: "Business performance",
		},
		{
			stream: "marketIndicators", topic: "market", category: "trend", priority: analysis.PriorityHigh,
			title: "Market Indicators Analysis", description: "Market indicator movement analysis",
			confidence: 0.85, magnitude: 70, timeframe: analysis.TimeframeMedium,
			scope: []string{"economic", "political"}, certainty: 85, reversibility: 60,
			cascade: []string{"investment", "consumer_confidence"}, related: []string{"market", "economy"},
			trendName: "Market conditions",
		},
	},
	analysis.DomainSocial: {
		{
			stream: "populationProfiles", topic: "population", category: "demographic", priority: analysis.PriorityMedium,
			title: "Population Analysis", description: "Population structure and growth analysis",
			confidence: 0.8, magnitude: 65, timeframe: analysis.TimeframeLong,
			scope: []string{"social"}, certainty: 80, reversibility: 30,
			cascade: []string{"labor_supply", "public_services"}, related: []string{"population", "demographics"},
			trendName: "Population growth",
		},
		{
			stream: "migrationData", topic: "migration", category: "trend", priority: analysis.PriorityMedium,
			title: "Migration Analysis", description: "Migration flow and integration analysis",
			confidence: 0.75, magnitude: 60, timeframe: analysis.TimeframeMedium,
			scope: []string{"social", "economic"}, certainty: 75, reversibility: 50,
			cascade: []string{"labor_supply", "social_cohesion"}, related: []string{"migration", "demographics"},
			trendName: "Migration integration",
		},
		{
			stream: "socialCohesionMetrics", topic: "cohesion", category: "social", priority: analysis.PriorityHigh,
			title: "Social Cohesion Analysis", description: "Social cohesion and trust analysis",
			confidence: 0.8, magnitude: 75, timeframe: analysis.TimeframeMedium,
			scope: []string{"social", "political"}, certainty: 80, reversibility: 55,
			cascade: []string{"civil_unrest", "institutional_trust"}, related: []string{"social", "politics"},
			trendName: "Social cohesion",
		},
	},
	analysis.DomainTechnological: {
		{
			stream: "technologyAdoption", topic: "adoption", category: "technology", priority: analysis.PriorityMedium,
			title: "Technology Adoption Analysis", description: "Technology adoption rate analysis",
			confidence: 0.85, magnitude: 70, timeframe: analysis.TimeframeMedium,
			scope: []string{"technological", "economic"}, certainty: 85, reversibility: 40,
			cascade: []string{"productivity", "workforce_skills"}, related: []string{"technology", "innovation"},
			trendName: "Technology adoption",
		},
		{
			stream: "innovationMetrics", topic: "innovation", category: "innovation", priority: analysis.PriorityHigh,
			title: "Innovation Metrics Analysis", description: "Innovation output and investment analysis",
			confidence: 0.8, magnitude: 80, timeframe: analysis.TimeframeLong,
			scope: []string{"technological", "economic"}, certainty: 80, reversibility: 45,
			cascade: []string{"competitiveness", "productivity"}, related: []string{"innovation", "technology"},
			trendName: "Innovation capacity",
		},
		{
			stream: "researchData", topic: "research", category: "research", priority: analysis.PriorityMedium,
			title: "Research Progress Analysis", description: "Research program progress analysis",
			confidence: 0.75, magnitude: 65, timeframe: analysis.TimeframeLong,
			scope: []string{"technological"}, certainty: 75, reversibility: 60,
			cascade: []string{"innovation"}, related: []string{"research", "technology"},
			trendName: "Research progress",
		},
	},
	analysis.DomainPolitical: {
		{
			stream: "governanceData", topic: "governance", category: "governance", priority: analysis.PriorityHigh,
			title: "Governance Analysis", description: "Governance effectiveness and legitimacy analysis",
			confidence: 0.8, magnitude: 75, timeframe: analysis.TimeframeMedium,
			scope: []string{"political"}, certainty: 80, reversibility: 50,
			cascade: []string{"policy_execution", "institutional_trust"}, related: []string{"governance", "politics"},
			trendName: "Governance quality",
		},
		{
			stream: "policyEffects", topic: "policy", category: "policy", priority: analysis.PriorityHigh,
			title: "Policy Effects Analysis", description: "Policy outcome and support analysis",
			confidence: 0.85, magnitude: 80, timeframe: analysis.TimeframeMedium,
			scope: []string{"political", "social", "economic"}, certainty: 85, reversibility: 65,
			cascade: []string{"public_support"}, related: []string{"policy", "governance"},
			trendName: "Policy effectiveness",
		},
		{
			stream: "securityMetrics", topic: "security", category: "security", priority: analysis.PriorityCritical,
			title: "Security Metrics Analysis", description: "Security threat and stability analysis",
			confidence: 0.9, magnitude: 85, timeframe: analysis.TimeframeShort,
			scope: []string{"political", "social"}, certainty: 90, reversibility: 35,
			cascade: []string{"civil_unrest", "economic_disruption"}, related: []string{"security", "defense"},
			trendName: "Security stability",
		},
	},
	analysis.DomainPsychological: {
		{
			stream: "personalityProfiles", topic: "personality", category: "psychology", priority: analysis.PriorityMedium,
			title: "Personality Profiles Analysis", description: "Population personality profile analysis",
			confidence: 0.8, magnitude: 70, timeframe: analysis.TimeframeLong,
			scope: []string{"psychological", "social"}, certainty: 80, reversibility: 20,
			cascade: []string{"behavioral_responses"}, related: []string{"psychology", "population"},
			trendName: "Personality balance",
		},
		{
			stream: "behavioralResponses", topic: "behavior", category: "behavior", priority: analysis.PriorityMedium,
			title: "Behavioral Responses Analysis", description: "Behavioral response and compliance analysis",
			confidence: 0.75, magnitude: 65, timeframe: analysis.TimeframeMedium,
			scope: []string{"psychological", "social"}, certainty: 75, reversibility: 60,
			cascade: []string{"policy_compliance"}, related: []string{"psychology", "behavior"},
			trendName: "Behavioral compliance",
		},
		{
			stream: "integrationAnalyses", topic: "integration", category: "integration", priority: analysis.PriorityHigh,
			title: "System Integration Analysis", description: "Cross-group integration analysis",
			confidence: 0.85, magnitude: 80, timeframe: analysis.TimeframeMedium,
			scope: []string{"psychological", "social", "political"}, certainty: 85, reversibility: 50,
			cascade: []string{"social_cohesion"}, related: []string{"all"},
			trendName: "Group integration",
		},
	},
	analysis.DomainSocialMedia: {
		{
			stream: "sentimentAnalysis", topic: "sentiment", category: "sentiment", priority: analysis.PriorityHigh,
			title: "Social Media Sentiment Analysis", description: "Public sentiment analysis across social media",
			confidence: 0.8, magnitude: 75, timeframe: analysis.TimeframeShort,
			scope: []string{"social", "political"}, certainty: 80, reversibility: 80,
			cascade: []string{"public_opinion"}, related: []string{"social_media", "psychology"},
			trendName: "Public sentiment",
		},
		{
			stream: "engagementMetrics", topic: "engagement", category: "engagement", priority: analysis.PriorityMedium,
			title: "Social Media Engagement Analysis", description: "Audience engagement analysis",
			confidence: 0.75, magnitude: 60, timeframe: analysis.TimeframeShort,
			scope: []string{"social", "cultural"}, certainty: 75, reversibility: 90,
			cascade: []string{"information_spread"}, related: []string{"social_media", "culture"},
			trendName: "Audience engagement",
		},
		{
			stream: "influenceAnalysis", topic: "influence", category: "influence", priority: analysis.PriorityHigh,
			title: "Social Media Influence Analysis", description: "Influence network analysis",
			confidence: 0.85, magnitude: 80, timeframe: analysis.TimeframeMedium,
			scope: []string{"social", "political", "cultural"}, certainty: 85, reversibility: 60,
			cascade: []string{"public_opinion", "policy_pressure"}, related: []string{"social_media", "influence"},
			trendName: "Influence concentration",
		},
	},
}
