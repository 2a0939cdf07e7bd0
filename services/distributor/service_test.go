package distributor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/rules"
	"github.com/permitleads/leadstack/internal/utils"
)

// ---- in-memory fakes ----

type fakePermitRepo struct {
	permits []*models.Permit
}

func (f *fakePermitRepo) IngestBatch(ctx context.Context, permits []*models.Permit) (int, error) {
	return 0, nil
}

func (f *fakePermitRepo) GetByID(ctx context.Context, id string) (*models.Permit, error) {
	for _, p := range f.permits {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.New("permit not found")
}

func (f *fakePermitRepo) ListActive(ctx context.Context) ([]*models.Permit, error) {
	return f.permits, nil
}

func (f *fakePermitRepo) List(ctx context.Context, filters interfaces.PermitFilters, limit, offset int) ([]*models.Permit, int64, error) {
	return f.permits, int64(len(f.permits)), nil
}

func (f *fakePermitRepo) UpdateStatus(ctx context.Context, id string, status enum.PermitStatus) error {
	return nil
}

func (f *fakePermitRepo) CountByCity(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

type fakeClientRepo struct {
	clients map[string]*models.Client
}

func (f *fakeClientRepo) Create(ctx context.Context, client *models.Client) error { return nil }

func (f *fakeClientRepo) GetByID(ctx context.Context, id string) (*models.Client, error) {
	client, ok := f.clients[id]
	if !ok {
		return nil, errors.New("client not found")
	}
	return client, nil
}

func (f *fakeClientRepo) List(ctx context.Context, status enum.ClientStatus, limit, offset int) ([]*models.Client, int64, error) {
	return nil, 0, nil
}

func (f *fakeClientRepo) Update(ctx context.Context, client *models.Client) error { return nil }
func (f *fakeClientRepo) Delete(ctx context.Context, id string) error             { return nil }

type runRecord struct {
	classID        string
	leadsSentToday int
}

type fakeClassRepo struct {
	classes []*models.AutomationClass
	runs    []runRecord
}

func (f *fakeClassRepo) Create(ctx context.Context, class *models.AutomationClass) error { return nil }

func (f *fakeClassRepo) GetByID(ctx context.Context, id string) (*models.AutomationClass, error) {
	for _, c := range f.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New("class not found")
}

func (f *fakeClassRepo) ListActive(ctx context.Context) ([]*models.AutomationClass, error) {
	var active []*models.AutomationClass
	for _, c := range f.classes {
		if c.IsActive() {
			active = append(active, c)
		}
	}
	return active, nil
}

func (f *fakeClassRepo) ListByClient(ctx context.Context, clientID string) ([]*models.AutomationClass, error) {
	return nil, nil
}

func (f *fakeClassRepo) Update(ctx context.Context, class *models.AutomationClass) error { return nil }

func (f *fakeClassRepo) SetStatus(ctx context.Context, id string, status enum.ClassStatus) error {
	return nil
}

func (f *fakeClassRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeClassRepo) RecordRun(ctx context.Context, id string, ranAt time.Time, leadsSentToday int) error {
	f.runs = append(f.runs, runRecord{classID: id, leadsSentToday: leadsSentToday})
	return nil
}

func (f *fakeClassRepo) ResetDailyCounters(ctx context.Context) error { return nil }

// fakeLeadRepo mirrors the ledger's unique-pair semantics under a mutex.
type fakeLeadRepo struct {
	mu       sync.Mutex
	reserved map[string]bool
	seq      int

	// failAfter triggers an error once that many reservations exist; zero disables.
	failAfter int
	// onReserve runs after each successful reservation, outside the lock.
	onReserve func()
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{reserved: map[string]bool{}}
}

func pairKey(classID, permitID string) string {
	return classID + "|" + permitID
}

func (f *fakeLeadRepo) Reserve(ctx context.Context, lead *models.Lead) (bool, error) {
	f.mu.Lock()
	if f.failAfter > 0 && len(f.reserved) >= f.failAfter {
		f.mu.Unlock()
		return false, errors.New("ledger unavailable")
	}
	key := pairKey(lead.AutomationClassID, lead.PermitID)
	if f.reserved[key] {
		f.mu.Unlock()
		return false, nil
	}
	f.reserved[key] = true
	f.seq++
	lead.ID = utils.GenerateNanoIdWithPrefix("lead", 16)
	f.mu.Unlock()

	if f.onReserve != nil {
		f.onReserve()
	}
	return true, nil
}

func (f *fakeLeadRepo) CountToday(ctx context.Context, classID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key := range f.reserved {
		if key[:len(classID)] == classID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLeadRepo) ListByClass(ctx context.Context, classID string, limit, offset int) ([]*models.Lead, int64, error) {
	return nil, 0, nil
}

func (f *fakeLeadRepo) ExistsForPermit(ctx context.Context, classID, permitID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reserved[pairKey(classID, permitID)], nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	requests []*interfaces.DigestRequest
	err      error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, request *interfaces.DigestRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, request)
	return nil
}

// ---- fixtures ----

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	return log
}

func newPermit(id, city, workClass, zip string, valuation float64) *models.Permit {
	return &models.Permit{
		ID:           id,
		City:         city,
		PermitNumber: "PN-" + id,
		WorkClass:    workClass,
		ZipCode:      zip,
		Valuation:    valuation,
		Status:       enum.PermitStatusActive,
	}
}

func newClass(id, clientID string, filters []rules.FilterRule, exclusions []rules.ExclusionRule, distribution rules.DistributionRule) *models.AutomationClass {
	return &models.AutomationClass{
		ID:             id,
		ClientID:       clientID,
		Name:           "class " + id,
		Status:         enum.ClassStatusActive,
		FilterRules:    filters,
		ExclusionRules: exclusions,
		Distribution:   models.DistributionRuleColumn{DistributionRule: distribution},
		EmailTemplate: models.EmailTemplateColumn{EmailTemplate: rules.EmailTemplate{
			Subject: "Leads {{date}}",
			Body:    "Attached.",
			Format:  enum.DigestFormatCSV,
		}},
	}
}

func roundRobin() rules.DistributionRule {
	return rules.DistributionRule{Type: enum.DistributionRoundRobin}
}

func activeClient(id string) *models.Client {
	return &models.Client{ID: id, Name: "Client " + id, Email: id + "@example.com", Status: enum.ClientStatusActive}
}

type fixture struct {
	service    *Service
	permits    *fakePermitRepo
	clients    *fakeClientRepo
	classes    *fakeClassRepo
	leads      *fakeLeadRepo
	dispatcher *fakeDispatcher
}

func newFixture(permits []*models.Permit, classes ...*models.AutomationClass) *fixture {
	f := &fixture{
		permits:    &fakePermitRepo{permits: permits},
		clients:    &fakeClientRepo{clients: map[string]*models.Client{}},
		classes:    &fakeClassRepo{classes: classes},
		leads:      newFakeLeadRepo(),
		dispatcher: &fakeDispatcher{},
	}
	for _, class := range classes {
		f.clients.clients[class.ClientID] = activeClient(class.ClientID)
	}
	f.service = NewService(f.permits, f.clients, f.classes, f.leads, f.dispatcher, testLogger())
	return f
}

func acceptedPermitIDs(request *interfaces.DigestRequest) []string {
	ids := make([]string, 0, len(request.Permits))
	for _, p := range request.Permits {
		ids = append(ids, p.ID)
	}
	return ids
}

// ---- tests ----

func TestRun_FiltersAreConjunctive(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78702", 40000),
		newPermit("p3", "dallas", "Remodel", "75201", 200000),
		newPermit("p4", "austin", "New", "78703", 300000),
	}
	class := newClass("ac1", "cli1", []rules.FilterRule{
		{Field: "city", Operator: enum.FilterOpEquals, Value: "austin"},
		{Field: "work_class", Operator: enum.FilterOpEquals, Value: "Remodel"},
		{Field: "valuation", Operator: enum.FilterOpGreaterThan, Value: "100000"},
	}, nil, roundRobin())
	f := newFixture(permits, class)

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Evaluated)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Accepted)
	require.Len(t, f.dispatcher.requests, 1)
	assert.Equal(t, []string{"p1"}, acceptedPermitIDs(f.dispatcher.requests[0]))
}

func TestRun_ExclusionsAreDisjunctive(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Demolition", "78702", 150000),
		newPermit("p3", "austin", "Remodel", "78702", 150000),
	}
	permits[2].Description = "emergency repair work"
	class := newClass("ac1", "cli1",
		[]rules.FilterRule{{Field: "city", Operator: enum.FilterOpEquals, Value: "austin"}},
		[]rules.ExclusionRule{
			{Field: "work_class", Operator: enum.FilterOpEquals, Value: "Demolition"},
			{Field: "description", Operator: enum.FilterOpContains, Value: "emergency"},
		},
		roundRobin())
	f := newFixture(permits, class)

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Accepted)
	require.Len(t, f.dispatcher.requests, 1)
	assert.Equal(t, []string{"p1"}, acceptedPermitIDs(f.dispatcher.requests[0]))
}

func TestRun_AlreadySentPairsSkippedSilently(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78702", 150000),
	}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)
	f.leads.reserved[pairKey("ac1", "p1")] = true

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 1, result.Accepted)
	require.Len(t, f.dispatcher.requests, 1)
	assert.Equal(t, []string{"p2"}, acceptedPermitIDs(f.dispatcher.requests[0]))
}

func TestRun_RerunEmitsNothingNew(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78702", 150000),
	}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)

	first, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Accepted)

	second, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Accepted)
	assert.Len(t, f.dispatcher.requests, 1)
}

func TestRun_TerritoryComposesWithFilters(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78799", 150000),
		newPermit("p3", "dallas", "Remodel", "78701", 150000),
	}
	class := newClass("ac1", "cli1",
		[]rules.FilterRule{{Field: "city", Operator: enum.FilterOpEquals, Value: "austin"}},
		nil,
		rules.DistributionRule{
			Type:   enum.DistributionTerritory,
			Config: rules.DistributionConfig{Territories: []string{"78701", "78702"}},
		})
	f := newFixture(permits, class)

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, []string{"p1"}, acceptedPermitIDs(f.dispatcher.requests[0]))
}

func TestRun_PercentageIsDeterministicAndExact(t *testing.T) {
	var permits []*models.Permit
	for _, id := range []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"} {
		permits = append(permits, newPermit(id, "austin", "Remodel", "78701", 150000))
	}
	pct := 50
	distribution := rules.DistributionRule{
		Type:   enum.DistributionPercentage,
		Config: rules.DistributionConfig{Percentage: &pct},
	}
	class := newClass("ac1", "cli1", nil, nil, distribution)

	f1 := newFixture(permits, class)
	result, err := f1.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Accepted)
	firstSelection := acceptedPermitIDs(f1.dispatcher.requests[0])

	f2 := newFixture(permits, class)
	_, err = f2.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, firstSelection, acceptedPermitIDs(f2.dispatcher.requests[0]))
}

func TestRun_PercentageMinimumOneWhenNonzero(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78702", 150000),
	}
	pct := 10
	class := newClass("ac1", "cli1", nil, nil, rules.DistributionRule{
		Type:   enum.DistributionPercentage,
		Config: rules.DistributionConfig{Percentage: &pct},
	})
	f := newFixture(permits, class)

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
}

func TestRun_PercentageZeroSelectsNothing(t *testing.T) {
	permits := []*models.Permit{newPermit("p1", "austin", "Remodel", "78701", 150000)}
	pct := 0
	class := newClass("ac1", "cli1", nil, nil, rules.DistributionRule{
		Type:   enum.DistributionPercentage,
		Config: rules.DistributionConfig{Percentage: &pct},
	})
	f := newFixture(permits, class)

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Accepted)
	assert.Empty(t, f.dispatcher.requests)
}

func TestRun_ConcurrentRunsAcceptEachPermitOnce(t *testing.T) {
	var permits []*models.Permit
	for _, id := range []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		permits = append(permits, newPermit(id, "austin", "Remodel", "78701", 150000))
	}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)

	const workers = 4
	accepted := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.service.Run(context.Background(), class)
			require.NoError(t, err)
			accepted[i] = result.Accepted
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range accepted {
		total += n
	}
	assert.Equal(t, len(permits), total)
	assert.Len(t, f.leads.reserved, len(permits))
}

func TestRun_LedgerFailureAbortsButKeepsReservations(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78702", 150000),
		newPermit("p3", "austin", "Remodel", "78703", 150000),
	}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)
	f.leads.failAfter = 2

	_, err := f.service.Run(context.Background(), class)
	require.Error(t, err)
	assert.Len(t, f.leads.reserved, 2)

	// retry after recovery emits only the remainder
	f.leads.failAfter = 0
	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, []string{"p3"}, acceptedPermitIDs(f.dispatcher.requests[0]))
}

func TestRun_CancellationStopsFurtherReservation(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78702", 150000),
		newPermit("p3", "austin", "Remodel", "78703", 150000),
	}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)

	ctx, cancel := context.WithCancel(context.Background())
	f.leads.onReserve = cancel

	_, err := f.service.Run(ctx, class)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.leads.reserved, 1)
}

func TestRun_DispatchFailureKeepsReservations(t *testing.T) {
	permits := []*models.Permit{newPermit("p1", "austin", "Remodel", "78701", 150000)}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)
	f.dispatcher.err = errors.New("broker unavailable")

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	assert.Len(t, f.leads.reserved, 1)
}

func TestRun_InactiveClassIsSkipped(t *testing.T) {
	permits := []*models.Permit{newPermit("p1", "austin", "Remodel", "78701", 150000)}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	class.Status = enum.ClassStatusInactive
	f := newFixture(permits, class)

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, f.leads.reserved)
}

func TestRun_InactiveClientIsSkipped(t *testing.T) {
	permits := []*models.Permit{newPermit("p1", "austin", "Remodel", "78701", 150000)}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)
	f.clients.clients["cli1"].Status = enum.ClientStatusInactive

	result, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, f.leads.reserved)
}

func TestRun_RecordsRunWithDailyCount(t *testing.T) {
	permits := []*models.Permit{
		newPermit("p1", "austin", "Remodel", "78701", 150000),
		newPermit("p2", "austin", "Remodel", "78702", 150000),
	}
	class := newClass("ac1", "cli1", nil, nil, roundRobin())
	f := newFixture(permits, class)

	_, err := f.service.Run(context.Background(), class)
	require.NoError(t, err)

	require.Len(t, f.classes.runs, 1)
	assert.Equal(t, "ac1", f.classes.runs[0].classID)
	assert.Equal(t, 2, f.classes.runs[0].leadsSentToday)
}

func TestRunAll_MisconfiguredClassDoesNotBlockOthers(t *testing.T) {
	permits := []*models.Permit{newPermit("p1", "austin", "Remodel", "78701", 150000)}
	broken := newClass("ac1", "cli1", nil, nil, rules.DistributionRule{
		Type: enum.DistributionTerritory, // no territories: invalid
	})
	healthy := newClass("ac2", "cli2", nil, nil, roundRobin())
	f := newFixture(permits, broken, healthy)

	results, err := f.service.RunAll(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "ac2", results[0].AutomationClassID)
	assert.Equal(t, 1, results[0].Accepted)
}

func TestRunAll_OrdersClassesByPriority(t *testing.T) {
	permits := []*models.Permit{newPermit("p1", "austin", "Remodel", "78701", 150000)}
	low, high := 5, 1
	later := newClass("ac1", "cli1", nil, nil, rules.DistributionRule{
		Type: enum.DistributionRoundRobin, Config: rules.DistributionConfig{Priority: &low},
	})
	first := newClass("ac2", "cli2", nil, nil, rules.DistributionRule{
		Type: enum.DistributionRoundRobin, Config: rules.DistributionConfig{Priority: &high},
	})
	f := newFixture(permits, later, first)

	results, err := f.service.RunAll(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "ac2", results[0].AutomationClassID)
	assert.Equal(t, "ac1", results[1].AutomationClassID)
}
