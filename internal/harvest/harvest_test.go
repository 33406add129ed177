package harvest_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/harvest"
)

// ---------------------------------------------------------------------------
// PredictHarvestDate
// ---------------------------------------------------------------------------

func Test_PredictHarvestDate_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		planted string
		days    *int
		want    string
		wantErr bool
	}{
		{name: "explicit period", planted: "2025-01-01", days: crop.IntPtr(90), want: "2025-04-01"},
		{name: "default period", planted: "2025-01-01", want: "2025-03-02"},
		{name: "zero means default", planted: "2025-01-01", days: crop.IntPtr(0), want: "2025-03-02"},
		{name: "leap year", planted: "2024-02-28", days: crop.IntPtr(1), want: "2024-02-29"},
		{name: "year rollover", planted: "2025-12-15", days: crop.IntPtr(30), want: "2026-01-14"},
		{name: "timestamp input", planted: "2025-01-01T23:00:00-02:00", days: crop.IntPtr(1), want: "2025-01-03"},
		{name: "negative period", planted: "2025-03-10", days: crop.IntPtr(-10), want: "2025-02-28"},
		{name: "malformed", planted: "01/01/2025", wantErr: true},
		{name: "empty", planted: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := harvest.PredictHarvestDate(tt.planted, tt.days)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("PredictHarvestDate(%q) expected error, got %q", tt.planted, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("PredictHarvestDate(%q) unexpected error: %v", tt.planted, err)
			}
			if got != tt.want {
				t.Errorf("PredictHarvestDate(%q) = %q, want %q", tt.planted, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// DaysBetween
// ---------------------------------------------------------------------------

func Test_DaysBetween_Cases(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{name: "same instant", a: base, b: base, want: 0},
		{name: "whole days", a: base, b: base.AddDate(0, 0, 10), want: 10},
		{name: "partial day rounds up", a: base, b: base.Add(25 * time.Hour), want: 2},
		{name: "one minute", a: base, b: base.Add(time.Minute), want: 1},
		{name: "order does not matter", a: base.AddDate(0, 0, 3), b: base, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := harvest.DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func Test_DaysBetweenISO(t *testing.T) {
	t.Parallel()

	got, err := harvest.DaysBetweenISO("2025-03-01", "2025-02-01")
	if err != nil {
		t.Fatalf("DaysBetweenISO() unexpected error: %v", err)
	}
	if got != 28 {
		t.Errorf("DaysBetweenISO() = %d, want 28", got)
	}

	if _, err := harvest.DaysBetweenISO("2025-03-01", "soon"); err == nil {
		t.Error("DaysBetweenISO() with malformed date expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// DaysToNext
// ---------------------------------------------------------------------------

func Test_DaysToNext_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stage int
		want  int
	}{
		{stage: 0, want: 20},
		{stage: 1, want: 15},
		{stage: 2, want: 10},
		{stage: 3, want: 5},
		{stage: 4, want: 0},
		{stage: 9, want: 0},
	}

	for _, tt := range tests {
		if got := harvest.DaysToNext(tt.stage); got != tt.want {
			t.Errorf("DaysToNext(%d) = %d, want %d", tt.stage, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Yield estimates
// ---------------------------------------------------------------------------

func Test_BaseYield_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		crop string
		want int
	}{
		{name: "exact", crop: "durian", want: 400},
		{name: "variety prefix", crop: "Alphonso Mango", want: 800},
		{name: "case insensitive", crop: "BANANA", want: 350},
		{name: "first word inside table key", crop: "water spinach", want: 300},
		{name: "first table entry wins", crop: "apple mango", want: 500},
		{name: "unknown", crop: "Rambutan", want: harvest.DefaultBaseYield},
		{name: "empty name matches first entry", crop: "", want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := harvest.BaseYield(tt.crop); got != tt.want {
				t.Errorf("BaseYield(%q) = %d, want %d", tt.crop, got, tt.want)
			}
		})
	}
}

func Test_EstimateYield_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		crop  string
		stage int
		want  string
	}{
		{crop: "Alphonso Mango", stage: 0, want: "TBD"},
		{crop: "Alphonso Mango", stage: 1, want: "TBD"},
		{crop: "Alphonso Mango", stage: 2, want: "480 kg"},
		{crop: "Alphonso Mango", stage: 3, want: "640 kg"},
		{crop: "Alphonso Mango", stage: 4, want: "800 kg"},
		{crop: "Papaya", stage: 2, want: "120 kg"},
		{crop: "Avocado", stage: 3, want: "200 kg"},
		{crop: "Rambutan", stage: 4, want: "300 kg"},
	}

	for _, tt := range tests {
		if got := harvest.EstimateYield(tt.crop, tt.stage); got != tt.want {
			t.Errorf("EstimateYield(%q, %d) = %q, want %q", tt.crop, tt.stage, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Predict
// ---------------------------------------------------------------------------

func Test_Predict_Cases(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		crop crop.Crop
		want harvest.Prediction
	}{
		{
			name: "fresh planting uses estimates",
			crop: crop.Crop{ID: "c1", Name: "Durian"},
			want: harvest.Prediction{
				CropID: "c1", Crop: "Durian", Section: "Unknown",
				HarvestDate: "Jun 21, 2025", DaysRemaining: 20,
				ExpectedYield: "TBD", Confidence: 70,
				Image: harvest.StockImage, Status: harvest.StatusUpcoming,
			},
		},
		{
			name: "fruiting is soon",
			crop: crop.Crop{
				ID: "c2", Name: "Alphonso Mango", Location: "North Orchard",
				StageIndex: crop.IntPtr(3), Photos: []string{"a.jpg", "b.jpg"},
			},
			want: harvest.Prediction{
				CropID: "c2", Crop: "Alphonso Mango", Section: "North Orchard",
				HarvestDate: "Jun 6, 2025", DaysRemaining: 5,
				ExpectedYield: "640 kg", Confidence: 88,
				Image: "b.jpg", Status: harvest.StatusSoon,
			},
		},
		{
			name: "ready with stored values",
			crop: crop.Crop{
				ID: "c3", Name: "Banana", StageIndex: crop.IntPtr(4),
				ExpectedYield: "1.2 tonnes", ConfidenceLevel: crop.IntPtr(60),
			},
			want: harvest.Prediction{
				CropID: "c3", Crop: "Banana", Section: "Unknown",
				HarvestDate: "Jun 1, 2025", DaysRemaining: 0,
				ExpectedYield: "1.2 tonnes", Confidence: 60,
				Image: harvest.StockImage, Status: harvest.StatusReady,
			},
		},
		{
			name: "confidence is capped",
			crop: crop.Crop{ID: "c4", Name: "Coconut", StageIndex: crop.IntPtr(4)},
			want: harvest.Prediction{
				CropID: "c4", Crop: "Coconut", Section: "Unknown",
				HarvestDate: "Jun 1, 2025", DaysRemaining: 0,
				ExpectedYield: "450 kg", Confidence: 94,
				Image: harvest.StockImage, Status: harvest.StatusReady,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := harvest.Predict(tt.crop, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Predict() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_PredictAll_PreservesOrder(t *testing.T) {
	t.Parallel()

	crops := []crop.Crop{{ID: "b", Name: "Papaya"}, {ID: "a", Name: "Orange"}}
	got := harvest.PredictAll(crops, time.Now())
	if len(got) != 2 || got[0].CropID != "b" || got[1].CropID != "a" {
		t.Errorf("PredictAll() ids = %+v, want [b a]", got)
	}
	if len(harvest.PredictAll(nil, time.Now())) != 0 {
		t.Error("PredictAll(nil) should be empty")
	}
}

// ---------------------------------------------------------------------------
// Summarize
// ---------------------------------------------------------------------------

func Test_Summarize_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		preds []harvest.Prediction
		want  harvest.Summary
	}{
		{name: "empty", want: harvest.Summary{}},
		{
			name: "mixed yields",
			preds: []harvest.Prediction{
				{DaysRemaining: 15, ExpectedYield: "TBD"},
				{DaysRemaining: 5, ExpectedYield: "640 kg"},
				{DaysRemaining: 10, ExpectedYield: "about 120 kg"},
			},
			want: harvest.Summary{NextDaysToHarvest: 5, TotalYieldKg: 760},
		},
		{
			name:  "only first number counts",
			preds: []harvest.Prediction{{DaysRemaining: 0, ExpectedYield: "1.5 tonnes"}},
			want:  harvest.Summary{NextDaysToHarvest: 0, TotalYieldKg: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, harvest.Summarize(tt.preds)); diff != "" {
				t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
