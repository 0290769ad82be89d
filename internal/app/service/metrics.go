package service

// Metrics receives domain events worth counting. Implementations must be
// safe for concurrent use.
type Metrics interface {
	LoginAttempt(success bool)
	TokenRefreshed()
	LinkCreated()
	LinkClicked()
}

type nopMetrics struct{}

func (nopMetrics) LoginAttempt(bool) {}
func (nopMetrics) TokenRefreshed()   {}
func (nopMetrics) LinkCreated()      {}
func (nopMetrics) LinkClicked()      {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
