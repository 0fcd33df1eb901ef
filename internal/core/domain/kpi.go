package domain

// KPIMetrics holds banking KPIs extracted from a financial report.
// Values stay as reported strings so units and footnote qualifiers
// survive extraction; missing metrics are empty.
type KPIMetrics struct {
	Revenue          string `json:"revenue"`
	NetProfit        string `json:"net_profit"`
	ROE              string `json:"roe"`
	ROA              string `json:"roa"`
	GNPA             string `json:"gnpa"`
	NNPA             string `json:"nnpa"`
	PCR              string `json:"pcr"`
	CRAR             string `json:"crar"`
	CAR              string `json:"car"`
	RevenueGrowthQoQ string `json:"revenue_growth_qoq"`
	RevenueGrowthYoY string `json:"revenue_growth_yoy"`
	Currency         string `json:"currency"`
	Period           string `json:"period"`
}
