package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0.00"},
		{in: "10.005", want: "10.01"},
		{in: "10.004", want: "10.00"},
		{in: "0.125", want: "0.13"},
		{in: "99.995", want: "100.00"},
		{in: "1.1", want: "1.10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tt.in))
			assert.Equal(t, tt.want, got.StringFixed(MoneyScale))
		})
	}
}

func TestAccount_RoundedBalanceZeroValue(t *testing.T) {
	var a Account
	assert.True(t, a.RoundedBalance().IsZero())
}

func TestCustomer_Key(t *testing.T) {
	c := &Customer{ID: 7, FirstName: "Jan", LastName: "Janssens", Street: "Dorpsplein 120", PostalCode: "8500", City: "Kortrijk", Status: CustomerStatusEnrolled}
	assert.Equal(t, NameAddress{LastName: "Janssens", FirstName: "Jan", Street: "Dorpsplein 120", PostalCode: "8500", City: "Kortrijk"}, c.Key())
}
