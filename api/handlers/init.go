package handlers

import (
	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/services/distributor"
)

type APIHandlers struct {
	Permits           *PermitsHandler
	Clients           *ClientsHandler
	AutomationClasses *AutomationClassesHandler
	Runs              *RunsHandler
}

func InitHandlers(r *repository.Repositories, engine *distributor.Service) *APIHandlers {
	return &APIHandlers{
		Permits:           NewPermitsHandler(r),
		Clients:           NewClientsHandler(r),
		AutomationClasses: NewAutomationClassesHandler(r),
		Runs:              NewRunsHandler(r, engine),
	}
}
