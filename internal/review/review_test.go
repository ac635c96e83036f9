package review_test

import (
	"context"
	"expvar"
	"testing"

	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/review"
	"go.uber.org/zap"
)

func TestLogging(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	request := review.Logging(log)
	before := reviewRequests()

	request(context.Background())
	request(context.Background())

	if after := reviewRequests(); after != before+2 {
		t.Errorf("wrong amount of review requests %d", after-before)
	}
}

func reviewRequests() int64 {
	return expvar.Get("counter_review_requests").(*expvar.Int).Value()
}

func TestRecorder(t *testing.T) {
	recorder := &review.Recorder{}

	var request review.RequestFunc = recorder.Request
	request(context.Background())

	if recorder.Requests() != 1 {
		t.Errorf("wrong amount of requests %d", recorder.Requests())
	}
}
