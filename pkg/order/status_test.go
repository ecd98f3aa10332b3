package order

import (
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/models"
)

type statusScenario struct {
	from models.OrderStatus
	err  error
}

func (s *statusScenario) anOrderInStatus(status string) error {
	st, err := ParseStatus(status)
	if err != nil {
		return err
	}
	s.from = st
	return nil
}

func (s *statusScenario) itIsMovedTo(status string) error {
	to, err := ParseStatus(status)
	if err != nil {
		return err
	}
	s.err = CanTransition(s.from, to)
	return nil
}

func (s *statusScenario) theMoveIsAllowed() error {
	if s.err != nil {
		return fmt.Errorf("expected move to be allowed, got %v", s.err)
	}
	return nil
}

func (s *statusScenario) theMoveIsRejectedAs(reason string) error {
	want := map[string]apperr.Kind{
		"invalid":   apperr.KindValidation,
		"finalized": apperr.KindOrderAlreadyFinalized,
	}[reason]
	if got := apperr.KindOf(s.err); s.err == nil || got != want {
		return fmt.Errorf("expected %s rejection, got %v", want, s.err)
	}
	return nil
}

func initializeStatusScenario(ctx *godog.ScenarioContext) {
	s := &statusScenario{}
	ctx.Step(`^an order in status "([^"]*)"$`, s.anOrderInStatus)
	ctx.Step(`^it is moved to "([^"]*)"$`, s.itIsMovedTo)
	ctx.Step(`^the move is allowed$`, s.theMoveIsAllowed)
	ctx.Step(`^the move is rejected as (invalid|finalized)$`, s.theMoveIsRejectedAs)
}

func TestStatusFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeStatusScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("status feature scenarios failed")
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Delivered ")
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, st)

	_, err = ParseStatus("returned")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
