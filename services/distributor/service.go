package distributor

import (
	"context"
	"hash/fnv"
	"sort"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/rules"
	"github.com/permitleads/leadstack/internal/tracing"
	"github.com/permitleads/leadstack/internal/utils"
)

// Service runs the routing engine: for each active automation class it
// evaluates the permit feed against the class rules, reserves surviving
// permits in the lead ledger and hands the accepted leads to the dispatcher.
type Service struct {
	permits    interfaces.PermitRepository
	clients    interfaces.ClientRepository
	classes    interfaces.AutomationClassRepository
	leads      interfaces.LeadRepository
	dispatcher interfaces.Dispatcher
	log        logger.Logger
}

// RunResult summarizes one class run.
type RunResult struct {
	AutomationClassID string `json:"automationClassId"`
	Evaluated         int    `json:"evaluated"`
	Matched           int    `json:"matched"`
	Accepted          int    `json:"accepted"`
	Skipped           bool   `json:"skipped"`
}

func NewService(
	permits interfaces.PermitRepository,
	clients interfaces.ClientRepository,
	classes interfaces.AutomationClassRepository,
	leads interfaces.LeadRepository,
	dispatcher interfaces.Dispatcher,
	log logger.Logger,
) *Service {
	return &Service{
		permits:    permits,
		clients:    clients,
		classes:    classes,
		leads:      leads,
		dispatcher: dispatcher,
		log:        log,
	}
}

// RunAll executes one distribution cycle over every active class. Classes run
// in priority order (lower first, creation order breaks ties). A failure in
// one class is logged and never blocks the remaining classes.
func (s *Service) RunAll(ctx context.Context) ([]*RunResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DistributorService.RunAll")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	classes, err := s.classes.ListActive(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to list active automation classes")
	}

	sort.SliceStable(classes, func(i, j int) bool {
		pi := classes[i].Distribution.PriorityOrDefault()
		pj := classes[j].Distribution.PriorityOrDefault()
		if pi != pj {
			return pi < pj
		}
		return classes[i].CreatedAt.Before(classes[j].CreatedAt)
	})

	results := make([]*RunResult, 0, len(classes))
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := s.Run(ctx, class)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("Distribution run failed for class %s: %v", class.ID, err)
			continue
		}
		results = append(results, result)
	}

	span.SetTag("classCount", len(classes))
	return results, nil
}

// Run executes the engine for a single automation class.
func (s *Service) Run(ctx context.Context, class *models.AutomationClass) (*RunResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DistributorService.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("automationClassId", class.ID)

	result := &RunResult{AutomationClassID: class.ID}

	if !class.IsActive() {
		result.Skipped = true
		return result, nil
	}

	ruleSet := class.RuleSet()
	if err := ruleSet.Validate(); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "class %s has an invalid rule configuration", class.ID)
	}

	client, err := s.clients.GetByID(ctx, class.ClientID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to load client for class %s", class.ID)
	}
	if client.Status != enum.ClientStatusActive {
		s.log.Infof("Skipping class %s: client %s is inactive", class.ID, client.ID)
		result.Skipped = true
		return result, nil
	}

	feed, err := s.permits.ListActive(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load permit feed")
	}
	result.Evaluated = len(feed)

	matched := evaluate(feed, ruleSet)
	result.Matched = len(matched)

	selected := applyDistribution(matched, ruleSet.Distribution)

	acceptedLeads, acceptedPermits, err := s.reserve(ctx, class, client, selected)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	result.Accepted = len(acceptedLeads)

	if len(acceptedLeads) > 0 {
		request := &interfaces.DigestRequest{
			Class:    class,
			Client:   client,
			Template: ruleSet.Template,
			Leads:    acceptedLeads,
			Permits:  acceptedPermits,
		}
		// Reservations are durable at this point; a dispatch failure is the
		// mailer's to recover and must not fail the run.
		if err := s.dispatcher.Dispatch(ctx, request); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("Digest dispatch failed for class %s: %v", class.ID, err)
		}
	}

	if err := s.recordRun(ctx, class); err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Failed to record run for class %s: %v", class.ID, err)
	}

	s.log.Infof("Class %s: evaluated %d, matched %d, accepted %d", class.ID, result.Evaluated, result.Matched, result.Accepted)
	return result, nil
}

// reserve writes each selected permit into the ledger. Pairs already sent are
// skipped silently. A ledger error aborts the run; leads reserved before the
// error stay reserved so a retry only emits the remainder.
func (s *Service) reserve(ctx context.Context, class *models.AutomationClass, client *models.Client, permits []*models.Permit) ([]*models.Lead, []*models.Permit, error) {
	var acceptedLeads []*models.Lead
	var acceptedPermits []*models.Permit

	sentAt := time.Now().UTC()
	for _, permit := range permits {
		if err := ctx.Err(); err != nil {
			return acceptedLeads, acceptedPermits, err
		}

		lead := &models.Lead{
			AutomationClassID: class.ID,
			ClientID:          client.ID,
			PermitID:          permit.ID,
			SentAt:            sentAt,
		}
		created, err := s.leads.Reserve(ctx, lead)
		if err != nil {
			return acceptedLeads, acceptedPermits, errors.Wrapf(err, "ledger reserve failed for permit %s", permit.ID)
		}
		if !created {
			continue
		}

		acceptedLeads = append(acceptedLeads, lead)
		acceptedPermits = append(acceptedPermits, permit)
	}

	return acceptedLeads, acceptedPermits, nil
}

func (s *Service) recordRun(ctx context.Context, class *models.AutomationClass) error {
	sentToday, err := s.leads.CountToday(ctx, class.ID)
	if err != nil {
		return err
	}
	return s.classes.RecordRun(ctx, class.ID, time.Now().UTC(), sentToday)
}

// evaluate applies the inclusion filters then the exclusion rules, preserving
// ingestion order.
func evaluate(feed []*models.Permit, ruleSet rules.RuleSet) []*models.Permit {
	var matched []*models.Permit
	for _, permit := range feed {
		if !rules.Matches(permit, ruleSet.Filters) {
			continue
		}
		if rules.Excluded(permit, ruleSet.Exclusions) {
			continue
		}
		matched = append(matched, permit)
	}
	return matched
}

// applyDistribution narrows the matched permits per the distribution rule.
// Output preserves ingestion order for every type.
func applyDistribution(matched []*models.Permit, rule rules.DistributionRule) []*models.Permit {
	switch rule.Type {
	case enum.DistributionTerritory:
		var selected []*models.Permit
		for _, permit := range matched {
			if utils.IsStringInSlice(permit.ZipCode, rule.Config.Territories) {
				selected = append(selected, permit)
			}
		}
		return selected
	case enum.DistributionPercentage:
		return samplePercentage(matched, *rule.Config.Percentage)
	default:
		return matched
	}
}

// samplePercentage picks floor(n*pct/100) permits, at least one when the
// percentage is nonzero. Selection hashes permit IDs so the same input always
// yields the same subset, then restores ingestion order.
func samplePercentage(matched []*models.Permit, percentage int) []*models.Permit {
	if len(matched) == 0 || percentage <= 0 {
		return nil
	}

	count := len(matched) * percentage / 100
	if count == 0 {
		count = 1
	}
	if count >= len(matched) {
		return matched
	}

	type ranked struct {
		index int
		hash  uint64
	}
	order := make([]ranked, len(matched))
	for i, permit := range matched {
		order[i] = ranked{index: i, hash: hashPermitID(permit.ID)}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].hash != order[j].hash {
			return order[i].hash < order[j].hash
		}
		return order[i].index < order[j].index
	})

	picked := order[:count]
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	selected := make([]*models.Permit, 0, count)
	for _, r := range picked {
		selected = append(selected, matched[r.index])
	}
	return selected
}

func hashPermitID(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}
