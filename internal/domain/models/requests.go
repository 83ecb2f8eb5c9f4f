package models

// Requests for the HTTP endpoints. Bound from path and query, then defaulted and validated.

type KlinesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,ticker"`
	Interval string `query:"interval" json:"interval" validate:"required"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type MoversRequest struct {
	Sort  string `query:"sort" json:"sort" default:"priceChangePercent" validate:"oneof=price priceChangePercent"`
	Order string `query:"order" json:"order" default:"desc" validate:"oneof=asc desc"`
}

type CoinsRequest struct {
	Query string `query:"q" json:"q" validate:"max=20"`
	Limit int    `query:"limit" json:"limit" validate:"gte=0,lte=1000"`
}

type FavoritesRequest struct {
	Query string `query:"q" json:"q" validate:"max=20"`
}

type FavoriteSymbolRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,ticker"`
}

type AnalysisListRequest struct {
	Interval string `query:"interval" json:"interval" default:"1d" validate:"oneof=1h 4h 1d 1w 1M"`
	Query    string `query:"q" json:"q" validate:"max=20"`
	Limit    int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type AnalysisDetailRequest struct {
	Symbol   string `param:"symbol" json:"symbol" validate:"required,ticker"`
	Interval string `query:"interval" json:"interval" default:"15"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type LoginStatusRequest struct {
	Nonce string `query:"nonce" json:"nonce" validate:"required"`
}

type PortfolioCallbackRequest struct {
	Nonce  string `query:"nonce" json:"nonce" validate:"required"`
	State  string `query:"state" json:"state" validate:"required"`
	Status string `query:"status" json:"status" validate:"required,max=32"`
}

type ToggleFavoriteResponse struct {
	Symbol   string `json:"symbol"`
	Favorite bool   `json:"favorite"`
}
