// Package steps binds the Gherkin steps of the feature files to page
// objects. Every scenario gets its own browser session, opened on the site
// root before the first step and closed after the last one.
package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/diagnostics"
	"github.com/xkilldash9x/uibdd/internal/page"
	"github.com/xkilldash9x/uibdd/internal/provision"
	"github.com/xkilldash9x/uibdd/internal/wait"
)

// ContainerColumns is the number of cells of a container row.
const ContainerColumns = 3

// Acquirer starts browser sessions. *provision.Provider satisfies it.
type Acquirer interface {
	Acquire(ctx context.Context, name string) (*provision.Session, error)
}

// Suite holds what every scenario of a run shares.
type Suite struct {
	Sessions Acquirer
	// Driver names the driver configuration every scenario runs on.
	Driver string
	// SiteURL is opened before the first step.
	SiteURL      string
	PollInterval time.Duration
	Pages        page.Options
	// Recorder captures failure artifacts; nil disables capture.
	Recorder *diagnostics.Recorder
	Logger   *zap.Logger
}

// Run executes the features selected by opts on the suite's driver and
// returns the godog exit status.
func (s *Suite) Run(ctx context.Context, opts godog.Options) int {
	opts.DefaultContext = ctx
	return godog.TestSuite{
		Name:                s.Driver,
		ScenarioInitializer: s.InitializeScenario,
		Options:             &opts,
	}.Run()
}

// scenario is the state of one running scenario.
type scenario struct {
	suite   *Suite
	name    string
	logger  *zap.Logger
	session *provision.Session
	main    *page.MainPage
	list    *page.ContainerListPage
}

// InitializeScenario is the godog ScenarioInitializer of the suite.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	st := &scenario{suite: s, logger: logger.Named("steps").With(zap.String("driver", s.Driver))}

	sc.Before(st.begin)
	sc.After(st.end)
	sc.StepContext().After(st.afterStep)

	// The leading "Ang" is a typo carried by older feature files.
	sc.Step(`^(?:Ang )?I go to the "containers / containers" page$`, st.goToContainerList)
	sc.Step(`^page is loaded$`, st.pageIsLoaded)
	sc.Step(`^at least "(\d+)" containers are present$`, st.atLeastContainersArePresent)
}

func (st *scenario) begin(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	st.name = sc.Name
	st.logger = st.logger.With(zap.String("scenario", sc.Name))
	ctx = wait.ContextWithInterval(ctx, st.suite.PollInterval)

	session, err := st.suite.Sessions.Acquire(ctx, st.suite.Driver)
	if err != nil {
		return ctx, err
	}
	st.session = session

	opts := st.suite.Pages
	if opts.Logger == nil {
		opts.Logger = st.logger
	}
	main, err := page.Open(ctx, session.Driver, st.suite.SiteURL, opts)
	if err != nil {
		st.capture(ctx)
		return ctx, errors.Join(err, st.closeSession())
	}
	st.main = main
	st.logger.Debug("Scenario started.", zap.String("session_id", session.ID))
	return ctx, nil
}

func (st *scenario) end(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
	if err != nil {
		st.logger.Info("Scenario failed.", zap.Error(err))
	}
	return ctx, st.closeSession()
}

func (st *scenario) closeSession() error {
	if st.session == nil {
		return nil
	}
	return st.session.Close()
}

func (st *scenario) afterStep(ctx context.Context, step *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
	if status == godog.StepFailed || status == godog.StepUndefined {
		st.logger.Warn("Step did not pass.", zap.String("step", step.Text), zap.String("status", status.String()), zap.Error(err))
		st.capture(ctx)
	}
	return ctx, nil
}

func (st *scenario) capture(ctx context.Context) {
	if st.suite.Recorder == nil || st.session == nil {
		return
	}
	st.suite.Recorder.CaptureBestEffort(context.WithoutCancel(ctx), st.session.Driver, st.name+" "+st.suite.Driver)
}

func (st *scenario) goToContainerList(ctx context.Context) error {
	if st.main == nil {
		return errors.New("no page is open")
	}
	list, err := st.main.GoContainerList(ctx)
	if err != nil {
		return err
	}
	st.list = list
	return nil
}

func (st *scenario) pageIsLoaded(ctx context.Context) error {
	if st.main == nil {
		return errors.New("no page is open")
	}
	list, err := page.NewContainerListPage(ctx, st.session.Driver, st.main.Options())
	if err != nil {
		return err
	}
	st.list = list
	return nil
}

func (st *scenario) atLeastContainersArePresent(ctx context.Context, n int) error {
	if st.list == nil {
		return errors.New("the container list page is not loaded")
	}
	rows, err := st.list.Containers(ctx, n)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != ContainerColumns {
			return fmt.Errorf("container row %d has %d columns, want %d: %q", i, len(row), ContainerColumns, row)
		}
	}
	return nil
}
