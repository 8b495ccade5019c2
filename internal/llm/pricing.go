package llm

// Pricing is a per-million-token rate for one model spec (§4.3: "Each
// publishes its per-million-token price so the Orchestrator can emit a cost
// estimate"). Values are static since spec.md gives no live pricing feed —
// the supplemented cost-estimation feature described in SPEC_FULL.md §4.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// pricingTable is the static resource backing CostReport.MonetaryCost and
// the GET /api/models pricing field.
var pricingTable = map[Variant]Pricing{
	VariantGeminiFlash: {InputPerMillion: 0.075, OutputPerMillion: 0.30},
	VariantGeminiPro:   {InputPerMillion: 1.25, OutputPerMillion: 5.00},
	VariantGPT51:       {InputPerMillion: 2.50, OutputPerMillion: 10.00},
}

// PriceOf returns the pricing for a variant, and whether it is known.
func PriceOf(v Variant) (Pricing, bool) {
	p, ok := pricingTable[v]
	return p, ok
}

// EstimateCost converts a token usage into a monetary figure at v's rate.
func EstimateCost(v Variant, usage TokenUsage) float64 {
	p, ok := pricingTable[v]
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1_000_000*p.InputPerMillion +
		float64(usage.OutputTokens)/1_000_000*p.OutputPerMillion
}
