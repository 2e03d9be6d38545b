package usecase

import (
	"context"
	"fmt"
	"sync"

	"price-estimation-service/internal/core/domain"

	"github.com/google/uuid"
)

func listing(areaType, location string, bhk int, sqft float64, bath int, price float64) domain.RawListing {
	size := fmt.Sprintf("%d BHK", bhk)
	return domain.RawListing{
		AreaType:  &areaType,
		Location:  &location,
		Size:      &size,
		TotalSqft: domain.AreaFromNumber(sqft),
		Bath:      &bath,
		Price:     &price,
	}
}

// trainingBatch - три района по 12 объявлений с разной ценой за фут
func trainingBatch() []domain.RawListing {
	ppsf := map[string]float64{"Whitefield": 6000, "Hebbal": 8000, "Yelahanka": 4000}
	var batch []domain.RawListing
	for _, loc := range []string{"Whitefield", "Hebbal", "Yelahanka"} {
		for i := 0; i < 12; i++ {
			sqft := 700 + float64(i)*100
			batch = append(batch, listing("Super built-up  Area", loc, 1+i%3, sqft, 1+i%2, sqft*(ppsf[loc]+float64(i%4)*30)/100000))
		}
	}
	return batch
}

type fakeSource struct {
	mu    sync.Mutex
	rows  []domain.RawListing
	err   error
	loads int
}

func (s *fakeSource) Load(ctx context.Context) ([]domain.RawListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *fakeSource) Name() string { return "fake" }

type fakeRuns struct {
	saved   []domain.TrainingRun
	saveErr error
	listErr error
}

func (r *fakeRuns) Save(ctx context.Context, run domain.TrainingRun) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, run)
	return nil
}

func (r *fakeRuns) ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.saved, nil
}

type reported struct {
	taskID uuid.UUID
	run    *domain.TrainingRun
	err    error
}

type fakeReporter struct {
	reports []reported
}

func (r *fakeReporter) ReportTraining(ctx context.Context, taskID uuid.UUID, run *domain.TrainingRun, trainErr error) error {
	r.reports = append(r.reports, reported{taskID: taskID, run: run, err: trainErr})
	return nil
}
