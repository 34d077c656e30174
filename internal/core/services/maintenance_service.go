package services

import (
	"context"
	"log"
	"time"

	"knowhub-backend/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// MaintenanceService runs scheduled housekeeping jobs
type MaintenanceService struct {
	auditRepo     repositories.LoginAuditRepository
	retentionDays int
	cron          *cron.Cron
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(auditRepo repositories.LoginAuditRepository, retentionDays int) *MaintenanceService {
	return &MaintenanceService{
		auditRepo:     auditRepo,
		retentionDays: retentionDays,
		cron:          cron.New(),
	}
}

// Start schedules the daily login-audit retention sweep (02:30)
func (s *MaintenanceService) Start() {
	_, err := s.cron.AddFunc("30 2 * * *", s.sweepLoginAudits)
	if err != nil {
		log.Printf("❌ Failed to schedule audit sweep: %v", err)
		return
	}

	s.cron.Start()
	log.Printf("🚀 MaintenanceService started (audit retention: %d days)", s.retentionDays)
}

// Stop stops the scheduler and waits for a running job to finish
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 MaintenanceService stopped")
}

// sweepLoginAudits deletes audit rows older than the retention window
func (s *MaintenanceService) sweepLoginAudits() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.auditRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("⚠️ Login audit sweep failed: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("🧹 Login audit sweep removed %d rows older than %s", deleted, cutoff.Format("2006-01-02"))
	}
}
