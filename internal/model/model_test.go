package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProduct_IsLowStock(t *testing.T) {
	for qty, want := range map[int64]bool{0: true, 9: true, 10: false, 250: false} {
		assert.Equal(t, want, (&Product{Quantity: qty}).IsLowStock(), "quantity %d", qty)
	}
}

func TestProduct_IsDeleted(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Product{}).IsDeleted())
	assert.True(t, (&Product{DeletedAt: &now}).IsDeleted())
}

func TestTransaction_Delta(t *testing.T) {
	assert.Equal(t, int64(4), (&Transaction{Type: TransactionAdd, Quantity: 4}).Delta())
	assert.Equal(t, int64(-4), (&Transaction{Type: TransactionDeduct, Quantity: 4}).Delta())
	assert.True(t, TransactionAdd.Valid())
	assert.False(t, TransactionType("refund").Valid())
}
