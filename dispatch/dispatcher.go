package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/APTrust/storage-gateway/network"
	"github.com/APTrust/storage-gateway/util/metrics"
	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"
)

// ConnectorRegistry looks up the connectors that can import a file.
type ConnectorRegistry interface {
	ConnectorsForImport(ctx context.Context, mimeType string, onlyAuto bool) ([]*registry.Connector, error)
}

// WorkRecorder records the work a connector is about to do.
type WorkRecorder interface {
	CreateWork(ctx context.Context, user *registry.User, connector *registry.Connector, name, sourceID string) (*registry.Work, error)
}

const (
	manualWorkName    = "Manual import"
	automaticWorkName = "Automatic import"
)

// Dispatcher sends import jobs to connectors. Each eligible connector
// gets a work record and a job message on its own topic.
type Dispatcher struct {
	connectors  ConnectorRegistry
	works       WorkRecorder
	publisher   network.Publisher
	fetchPrefix string
	logger      *logging.Logger
	metrics     *metrics.Recorder
}

// NewDispatcher returns a Dispatcher. Param fetchPrefix is the path
// connectors use to download the file, with the file id appended.
// Param recorder may be nil.
func NewDispatcher(connectors ConnectorRegistry, works WorkRecorder, publisher network.Publisher, fetchPrefix string, logger *logging.Logger, recorder *metrics.Recorder) *Dispatcher {
	if fetchPrefix == "" {
		fetchPrefix = constants.DefaultFileFetchPrefix
	}
	return &Dispatcher{
		connectors:  connectors,
		works:       works,
		publisher:   publisher,
		fetchPrefix: fetchPrefix,
		logger:      logger,
		metrics:     recorder,
	}
}

type connectorWork struct {
	connector *registry.Connector
	work      *registry.Work
}

// Dispatch starts import jobs for the file fileID on every eligible
// connector, and returns the connectors it dispatched to.
//
// Unless opts.Manual is set, only connectors that trigger
// automatically are eligible. opts.ConnectorID narrows the choice to
// one connector. Connectors that only work in the context of an entity
// are skipped when entityID is empty.
//
// If creating a work record fails, nothing is published. If some
// publishes fail, the others still go out and the returned error is a
// *common.DispatchError naming the connectors that missed the job.
func (d *Dispatcher) Dispatch(ctx context.Context, user *registry.User, fileID, mimeType, entityID string, opts service.ImportOptions) ([]*registry.Connector, error) {
	candidates, err := d.connectors.ConnectorsForImport(ctx, mimeType, !opts.Manual)
	if err != nil {
		return nil, fmt.Errorf("looking up connectors for %s: %w", mimeType, err)
	}
	connectors := make([]*registry.Connector, 0, len(candidates))
	for _, c := range candidates {
		if opts.ConnectorID != "" && c.ID != opts.ConnectorID {
			continue
		}
		if entityID == "" && c.OnlyContextual {
			continue
		}
		connectors = append(connectors, c)
	}
	if len(connectors) == 0 {
		return connectors, nil
	}

	jobs, err := d.createWorks(ctx, user, connectors, fileID, opts.Manual)
	if err != nil {
		return nil, err
	}
	if err := d.publishAll(user, jobs, fileID, mimeType, entityID, opts); err != nil {
		return nil, err
	}
	d.logger.Infof("[IMPORT] Dispatched %s to %d connectors", fileID, len(connectors))
	return connectors, nil
}

func (d *Dispatcher) createWorks(ctx context.Context, user *registry.User, connectors []*registry.Connector, fileID string, manual bool) ([]connectorWork, error) {
	name := automaticWorkName
	if manual {
		name = manualWorkName
	}
	jobs := make([]connectorWork, len(connectors))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, connector := range connectors {
		i, connector := i, connector
		group.Go(func() error {
			work, err := d.works.CreateWork(groupCtx, user, connector, name, fileID)
			if err != nil {
				return fmt.Errorf("creating work for connector %s: %w", connector.Name, err)
			}
			jobs[i] = connectorWork{connector: connector, work: work}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// publishAll sends every job and waits for all of them, whether or
// not some fail.
func (d *Dispatcher) publishAll(user *registry.User, jobs []connectorWork, fileID, mimeType, entityID string, opts service.ImportOptions) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failed   []string
		firstErr error
	)
	for _, job := range jobs {
		wg.Add(1)
		go func(job connectorWork) {
			defer wg.Done()
			err := d.publish(user, job, fileID, mimeType, entityID, opts)
			d.metrics.Publish(err)
			if err == nil {
				return
			}
			d.logger.Errorf("[IMPORT] Cannot send %s to connector %s: %v", fileID, job.connector.Name, err)
			mu.Lock()
			failed = append(failed, job.connector.InternalID)
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(job)
	}
	wg.Wait()
	if len(failed) > 0 {
		sort.Strings(failed)
		return &common.DispatchError{Failed: failed, Total: len(jobs), Err: firstErr}
	}
	return nil
}

func (d *Dispatcher) publish(user *registry.User, job connectorWork, fileID, mimeType, entityID string, opts service.ImportOptions) error {
	msg := &service.ImportJobMessage{
		Configuration: opts.Configuration,
		Event: service.ImportJobEvent{
			BypassValidation: opts.BypassValidation,
			EntityID:         entityID,
			FileFetch:        d.fetchPrefix + fileID,
			FileID:           fileID,
			FileMime:         mimeType,
		},
		Internal: service.ImportInternal{
			ApplicantID: user.GetID(),
			WorkID:      job.work.ID,
		},
	}
	body, err := msg.ToJSON()
	if err != nil {
		return err
	}
	return d.publisher.Publish(job.connector.Topic(), body)
}
