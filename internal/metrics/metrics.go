// Package metrics содержит Prometheus-метрики бизнес-операций бэк-офиса.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
)

// Metrics хранит счётчики и гистограммы сервисов. Методы допускают nil-получатель,
// так что сервисы можно собирать без метрик.
type Metrics struct {
	CustomersEnrolled   prometheus.Counter
	CustomersUnenrolled prometheus.Counter
	AccountsOpened      prometheus.Counter
	AccountsClosed      prometheus.Counter
	Deposits            prometheus.Counter
	Withdrawals         prometheus.Counter
	RuleViolations      *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		CustomersEnrolled: f.NewCounter(prometheus.CounterOpts{
			Name: "bank_customers_enrolled_total",
			Help: "Total number of customers enrolled",
		}),
		CustomersUnenrolled: f.NewCounter(prometheus.CounterOpts{
			Name: "bank_customers_unenrolled_total",
			Help: "Total number of customers unenrolled",
		}),
		AccountsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "bank_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		AccountsClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "bank_accounts_closed_total",
			Help: "Total number of accounts closed",
		}),
		Deposits: f.NewCounter(prometheus.CounterOpts{
			Name: "bank_deposits_total",
			Help: "Total number of successful deposits",
		}),
		Withdrawals: f.NewCounter(prometheus.CounterOpts{
			Name: "bank_withdrawals_total",
			Help: "Total number of successful withdrawals",
		}),
		RuleViolations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_rule_violations_total",
			Help: "Rejected operations by validation code",
		}, []string{"code"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bank_operation_duration_seconds",
			Help:    "Duration of service operations including storage round trips",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncCustomersEnrolled отмечает успешную регистрацию клиента.
func (m *Metrics) IncCustomersEnrolled() {
	if m != nil {
		m.CustomersEnrolled.Inc()
	}
}

// IncCustomersUnenrolled отмечает снятие клиента с обслуживания.
func (m *Metrics) IncCustomersUnenrolled() {
	if m != nil {
		m.CustomersUnenrolled.Inc()
	}
}

// IncAccountsOpened отмечает открытие счёта.
func (m *Metrics) IncAccountsOpened() {
	if m != nil {
		m.AccountsOpened.Inc()
	}
}

// IncAccountsClosed отмечает закрытие счёта.
func (m *Metrics) IncAccountsClosed() {
	if m != nil {
		m.AccountsClosed.Inc()
	}
}

// IncDeposits отмечает успешное пополнение.
func (m *Metrics) IncDeposits() {
	if m != nil {
		m.Deposits.Inc()
	}
}

// IncWithdrawals отмечает успешное снятие.
func (m *Metrics) IncWithdrawals() {
	if m != nil {
		m.Withdrawals.Inc()
	}
}

// ObserveOutcome записывает длительность операции, а для нарушений правил и их код.
// Вызывать через defer со временем начала операции.
func (m *Metrics) ObserveOutcome(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if code := apperr.CodeOf(err); code != "" {
		m.RuleViolations.WithLabelValues(string(code)).Inc()
	}
}
