package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusWithoutChecks(t *testing.T) {
	report := NewService(0).Status(context.Background())

	assert.True(t, report.OK)
	assert.Nil(t, report.Checks)
}

func TestStatusReportsFailingCheck(t *testing.T) {
	svc := NewService(time.Second)
	svc.Register("database", func(context.Context) error { return errors.New("connection refused") })
	svc.Register("store", func(context.Context) error { return nil })

	report := svc.Status(context.Background())

	assert.False(t, report.OK)
	assert.Equal(t, "connection refused", report.Checks["database"])
	assert.Equal(t, "ok", report.Checks["store"])
}

func TestStatusAppliesTimeout(t *testing.T) {
	svc := NewService(10 * time.Millisecond)
	svc.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := svc.Status(context.Background())

	assert.False(t, report.OK)
	assert.Equal(t, context.DeadlineExceeded.Error(), report.Checks["slow"])
}
