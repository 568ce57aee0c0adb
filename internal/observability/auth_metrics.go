package observability

import "github.com/geocoder89/authcore/internal/apperr"

// ObserveAuth records the outcome of an identity operation.
func (p *Prom) ObserveAuth(op string, err error) {
	result := "ok"
	if err != nil {
		result = apperr.KindName(err)
	}
	p.AuthResults.WithLabelValues(op, result).Inc()
}

func (p *Prom) TokenIssued(tokenType string) {
	p.TokensIssued.WithLabelValues(tokenType).Inc()
}

func (p *Prom) ObserveRateLimited(route string) {
	p.RateLimited.WithLabelValues(route).Inc()
}
