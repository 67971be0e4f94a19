package resolve

import (
	"sync"
	"testing"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

func testCatalog() *models.Catalog {
	return models.NewCatalog(
		models.AgentDescriptor{
			Name:        "IoT Data Download",
			Description: "Lists sites, assets and sensors and downloads sensor history",
			Keywords:    []string{"iot", "sensor data", "download"},
		},
		models.AgentDescriptor{
			Name:        "Failure Mode Sensor Relations",
			Description: "Relates failure modes to sensors",
			Keywords:    []string{"failure mode", "fmsr", "sensor"},
		},
		models.AgentDescriptor{
			Name:        "TSFM",
			Description: "Time series forecasting and anomaly detection",
			Keywords:    []string{"forecast", "anomaly", "time series"},
		},
		models.AgentDescriptor{
			Name:        "Work Order Generator",
			Description: "Creates and recommends work orders",
			Keywords:    []string{"work order", "maintenance"},
		},
	)
}

func TestResolve(t *testing.T) {
	cat := testCatalog()

	tests := []struct {
		name       string
		raw        string
		wantName   string
		wantConfid models.Confidence
	}{
		{"exact match", "IoT Data Download", "IoT Data Download", models.ConfidenceExact},
		{"exact ignores case", "iot data download", "IoT Data Download", models.ConfidenceExact},
		{"exact ignores punctuation", "  IoT-Data_Download. ", "IoT Data Download", models.ConfidenceExact},
		{"exact ignores spacing", "IoTDataDownload", "IoT Data Download", models.ConfidenceExact},
		{"raw contained in catalog name", "Work Order", "Work Order Generator", models.ConfidencePartial},
		{"catalog name contained in raw", "TSFM Agent", "TSFM", models.ConfidencePartial},
		{"keyword match", "forecasting agent for anomaly checks", "TSFM", models.ConfidenceKeyword},
		{"keyword phrase", "the maintenance planner", "Work Order Generator", models.ConfidenceKeyword},
		{"unresolved", "Foobar Agent", "", models.ConfidenceUnresolved},
		{"empty", "   ", "", models.ConfidenceUnresolved},
		{"unrelated word", "Pilot", "", models.ConfidenceUnresolved},
		{"name glued to suffix", "TSFMAgent", "TSFM", models.ConfidencePartial},
		{"camel case name glued to suffix", "IoTDataDownloadAgent", "IoT Data Download", models.ConfidencePartial},
		{"raw inside a word of the name", "Generat", "Work Order Generator", models.ConfidencePartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.raw, cat)
			if got.CanonicalName != tt.wantName || got.Confidence != tt.wantConfid {
				t.Errorf("Resolve(%q) = %+v, want {%q %q}", tt.raw, got, tt.wantName, tt.wantConfid)
			}
		})
	}
}

func TestResolve_KeywordTieBreak(t *testing.T) {
	cat := testCatalog()

	// "sensor" is a keyword of FMSR only; "sensor data" is a phrase keyword of IoT.
	// The IoT agent matches two keywords ("sensor data", "download"), FMSR one.
	got := Resolve("download sensor data please", cat)
	if got.CanonicalName != "IoT Data Download" || got.Confidence != models.ConfidenceKeyword {
		t.Errorf("Resolve() = %+v, want IoT Data Download by keyword", got)
	}

	// Equal overlap counts fall back to catalog order.
	tie := models.NewCatalog(
		models.AgentDescriptor{Name: "Alpha", Keywords: []string{"pump"}},
		models.AgentDescriptor{Name: "Beta", Keywords: []string{"pump"}},
	)
	got = Resolve("pump helper", tie)
	if got.CanonicalName != "Alpha" {
		t.Errorf("tie resolved to %q, want %q", got.CanonicalName, "Alpha")
	}
}

func TestResolve_RuleOrder(t *testing.T) {
	// Exact beats partial even when the partial candidate comes first in the catalog.
	cat := models.NewCatalog(
		models.AgentDescriptor{Name: "Work Order Generator"},
		models.AgentDescriptor{Name: "Work Order"},
	)
	got := Resolve("work order", cat)
	if got.CanonicalName != "Work Order" || got.Confidence != models.ConfidenceExact {
		t.Errorf("Resolve() = %+v, want exact Work Order", got)
	}
}

func TestResolve_WordBoundaryPreferred(t *testing.T) {
	// "order" is a plain substring of "Disorder Review" but a whole word of "Work Order".
	cat := models.NewCatalog(
		models.AgentDescriptor{Name: "Disorder Review"},
		models.AgentDescriptor{Name: "Work Order"},
	)
	got := Resolve("order", cat)
	if got.CanonicalName != "Work Order" || got.Confidence != models.ConfidencePartial {
		t.Errorf("Resolve() = %+v, want partial Work Order", got)
	}
}

func TestResolve_NeverDefaults(t *testing.T) {
	cat := models.NewCatalog(models.AgentDescriptor{Name: "Only Agent"})

	got := Resolve("something unrelated", cat)
	if got.Resolved() {
		t.Errorf("Resolve() = %+v, want unresolved", got)
	}

	got = Resolve("anything", models.NewCatalog())
	if got.Resolved() {
		t.Errorf("empty catalog resolved to %+v", got)
	}
}

func TestResolver_ConcurrentUse(t *testing.T) {
	r := New(testCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := r.Resolve("Work Order"); got.CanonicalName != "Work Order Generator" {
					t.Errorf("concurrent Resolve() = %+v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IoT Data Download", "iot data download"},
		{"  IoT--Data   Download!! ", "iot data download"},
		{"Work_Order/Generator", "work order generator"},
		{"", ""},
		{"***", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
