package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ies4ops/internal/application"
	"ies4ops/internal/catalog"
	"ies4ops/internal/domain"
	"ies4ops/internal/logger"
)

const odesa = "/data/odesa_oblast.json"

type harness struct {
	runner    *application.Runner
	store     *memStore
	companion *fakeCompanion
	journal   *memJournal
}

func newHarness(t *testing.T, withCompanion bool, delay time.Duration) *harness {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	h := &harness{store: newMemStore(), journal: &memJournal{}}
	deps := application.Dependencies{
		Locator: fakeLocator{dir: "/data"},
		Store:   h.store,
		Catalog: cat,
		Registry: domain.NewRegistry(
			domain.Database{Code: "OP7", DataFile: "odesa_oblast.json"},
			domain.Database{Code: "OP3", DataFile: "zaporizhzhia_oblast.json"},
			domain.Database{Code: "OP1", DataFile: "donetsk_oblast.json"},
			domain.Database{Code: "ALL", DataFile: "combined.json"},
		),
		Journal: h.journal,
		Logger:  logger.Discard(),
	}
	if withCompanion {
		h.companion = &fakeCompanion{}
		deps.Companion = h.companion
	}

	h.runner = application.NewRunner(deps, application.Options{
		DefaultDatabase: "OP7",
		RefreshDelay:    delay,
		RefreshTimeout:  time.Second,
	})
	return h
}

func TestRunner_AddAppendsRecordAndType(t *testing.T) {
	h := newHarness(t, true, 0)
	h.store.put(odesa, `{"_metadata": {"region": "Odesa"}, "vehicles": [{"id": "tank-t72-op7-001", "type": "tank"}]}`)

	res, err := h.runner.Add(context.Background(), "shahed136", "")
	require.NoError(t, err)

	assert.Equal(t, "OP7", res.Database.Code)
	assert.Equal(t, odesa, res.DataFile)
	assert.NotEmpty(t, res.BackupPath)
	assert.False(t, res.Upsert.Replaced)
	assert.True(t, res.Upsert.TypeAdded)
	assert.Equal(t, "uav-shahed136-drone-op7-001", res.Upsert.ID)
	assert.Equal(t, 2, res.Counts[domain.CollectionVehicles])
	assert.Equal(t, 1, res.Counts[domain.CollectionVehicleTypes])
	assert.Empty(t, res.Warnings)

	assert.True(t, res.Refresh.Reloaded)
	assert.True(t, res.Refresh.Analyzed)
	assert.Equal(t, []string{"OP7"}, h.companion.reloads)
	assert.Equal(t, []string{"load_database"}, h.companion.endpoints)
	require.Len(t, h.companion.analyzed, 1)
	assert.Equal(t, "spring", h.companion.analyzed[0].Layout)
	assert.True(t, h.companion.analyzed[0].ForceReload)

	require.Len(t, h.journal.entries, 1)
	entry := h.journal.entries[0]
	assert.Equal(t, domain.ActionAdd, entry.Action)
	assert.Equal(t, "uav-shahed136-drone-op7-001", entry.RecordID)
	assert.True(t, entry.Refreshed)

	// backup holds the original content
	assert.Len(t, h.store.doc(res.BackupPath).Collection(domain.CollectionVehicles), 1)
	assert.Equal(t, []string{"_metadata", "vehicles", "vehicleTypes"}, h.store.doc(odesa).Keys())
}

func TestRunner_AddIsIdempotent(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{"vehicles": []}`)
	ctx := context.Background()

	first, err := h.runner.Add(ctx, "shahed136", "OP7")
	require.NoError(t, err)
	second, err := h.runner.Add(ctx, "SHAHED136", "op7")
	require.NoError(t, err)

	assert.False(t, first.Upsert.Replaced)
	assert.True(t, second.Upsert.Replaced)
	assert.False(t, second.Upsert.TypeAdded)
	assert.Equal(t, first.Upsert.ID, second.Upsert.ID)
	assert.Equal(t, 1, second.Counts[domain.CollectionVehicles])
	assert.Equal(t, 1, second.Counts[domain.CollectionVehicleTypes])
	assert.False(t, second.Refresh.Attempted)
}

func TestRunner_AddPreservesExistingID(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{"vehicles": [{"id": "legacy-42", "names": [{"value": "Geran-2"}]}]}`)

	res, err := h.runner.Add(context.Background(), "shahed136", "OP7")
	require.NoError(t, err)

	assert.True(t, res.Upsert.Replaced)
	assert.Equal(t, "legacy-42", res.Upsert.ID)
	rec := h.store.doc(odesa).Collection(domain.CollectionVehicles)[0]
	assert.Equal(t, "legacy-42", rec.ID())
	assert.Equal(t, "HESA", rec.Field("manufacturer"))
}

func TestRunner_MissingFileAbortsWithoutSideEffects(t *testing.T) {
	h := newHarness(t, true, 0)

	_, err := h.runner.Add(context.Background(), "shahed136", "OP3")

	assert.ErrorIs(t, err, application.ErrFileNotFound)
	assert.Empty(t, h.store.backups)
	assert.Zero(t, h.store.saves)
	assert.Empty(t, h.companion.reloads)
	assert.Empty(t, h.journal.entries)
}

func TestRunner_InvalidFileIsBackedUpButNotWritten(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{"vehicles": {"id": "oops"}}`)

	_, err := h.runner.Add(context.Background(), "shahed136", "OP7")

	assert.ErrorIs(t, err, application.ErrParse)
	assert.Len(t, h.store.backups[odesa], 1)
	assert.Zero(t, h.store.saves)
}

func TestRunner_RemoveShahedScenario(t *testing.T) {
	h := newHarness(t, true, 0)
	h.store.put(odesa, `{
		"vehicles": [{"id": "uav-shahed136-drone-op7-001", "type": "loitering-munition", "names": [{"value": "HESA Shahed 136"}]}],
		"vehicleTypes": [{"id": "loitering-munition"}]
	}`)

	res, err := h.runner.Remove(context.Background(), "shahed136", "OP7")
	require.NoError(t, err)

	assert.False(t, res.NoOp)
	assert.Equal(t, 1, res.Delete.Removed)
	assert.True(t, res.Delete.TypeRemoved)
	assert.Equal(t, []string{"uav-shahed136-drone-op7-001"}, res.Delete.RemovedIDs)
	assert.Equal(t, 0, res.Counts[domain.CollectionVehicles])
	assert.Equal(t, 0, res.Counts[domain.CollectionVehicleTypes])

	doc := h.store.doc(odesa)
	assert.Empty(t, doc.Collection(domain.CollectionVehicles))
	assert.Empty(t, doc.Collection(domain.CollectionVehicleTypes))

	require.Len(t, h.journal.entries, 1)
	assert.Equal(t, domain.ActionRemove, h.journal.entries[0].Action)
	assert.Equal(t, 1, h.journal.entries[0].Removed)
}

func TestRunner_RemoveKeepsTypeWithSiblings(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{
		"vehicles": [
			{"id": "uav-shahed136-drone-op7-001", "type": "loitering-munition"},
			{"id": "uav-lancet-op7-001", "type": "loitering-munition"}
		],
		"vehicleTypes": [{"id": "loitering-munition"}]
	}`)

	res, err := h.runner.Remove(context.Background(), "shahed136", "OP7")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Delete.Removed)
	assert.False(t, res.Delete.TypeRemoved)
	assert.Equal(t, 1, res.Counts[domain.CollectionVehicleTypes])
}

func TestRunner_RemoveWithoutMatchIsNoOp(t *testing.T) {
	h := newHarness(t, true, 0)
	h.store.put(odesa, `{"vehicles": [{"id": "tank-t72-op7-001"}]}`)

	res, err := h.runner.Remove(context.Background(), "shahed136", "OP7")
	require.NoError(t, err)

	assert.True(t, res.NoOp)
	assert.NotEmpty(t, res.BackupPath)
	assert.Zero(t, h.store.saves)
	assert.Empty(t, h.companion.reloads)
	assert.Empty(t, h.journal.entries)
}

func TestRunner_ServiceFailuresAreWarnings(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*fakeCompanion)
		wantReloaded bool
		wantAnalyzed bool
		wantWarnings int
	}{
		{"unreachable", func(c *fakeCompanion) { c.pingErr = errors.New("connection refused") }, false, false, 1},
		{"reload fails", func(c *fakeCompanion) { c.reloadErr = errors.New("HTTP 500") }, false, true, 1},
		{"analyze fails", func(c *fakeCompanion) { c.analyzeErr = errors.New("timeout") }, true, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true, 0)
			tt.setup(h.companion)
			h.store.put(odesa, `{"vehicles": []}`)

			res, err := h.runner.Add(context.Background(), "orlan10", "OP7")
			require.NoError(t, err)

			assert.Equal(t, tt.wantReloaded, res.Refresh.Reloaded)
			assert.Equal(t, tt.wantAnalyzed, res.Refresh.Analyzed)
			assert.Len(t, res.Warnings, tt.wantWarnings)
			assert.Equal(t, 1, h.store.saves, "file mutation must stand")
			require.Len(t, h.journal.entries, 1)
			assert.Len(t, h.journal.entries[0].Warnings, tt.wantWarnings)
		})
	}
}

func TestRunner_ReloadFallsBackToForceReload(t *testing.T) {
	h := newHarness(t, true, 10*time.Millisecond)
	h.companion.loadMissing = true
	h.store.put(odesa, `{"vehicles": []}`)

	res, err := h.runner.Add(context.Background(), "bm21", "OP7")
	require.NoError(t, err)
	assert.True(t, res.Refresh.Reloaded)
	assert.Empty(t, res.Warnings)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.runner.Wait(ctx))

	assert.Equal(t, []string{
		"load_database", "force_reload_database",
		"load_database", "force_reload_database",
	}, h.companion.endpoints)
	assert.Equal(t, []string{"OP7", "OP7"}, h.companion.reloads)
}

func TestRunner_ReloadErrorDoesNotFallBack(t *testing.T) {
	h := newHarness(t, true, 0)
	h.companion.reloadErr = errors.New("HTTP 500")
	h.store.put(odesa, `{"vehicles": []}`)

	res, err := h.runner.Add(context.Background(), "bm21", "OP7")
	require.NoError(t, err)
	assert.False(t, res.Refresh.Reloaded)
	assert.Equal(t, []string{"load_database"}, h.companion.endpoints)
}

func TestRunner_DelayedReload(t *testing.T) {
	h := newHarness(t, true, 10*time.Millisecond)
	h.store.put(odesa, `{"vehicles": []}`)

	res, err := h.runner.Add(context.Background(), "shahed136", "OP7")
	require.NoError(t, err)
	assert.True(t, res.Refresh.DelayedScheduled)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.runner.Wait(ctx))

	assert.Equal(t, 2, h.companion.reloadCount())
}

func TestRunner_NoDelayedReloadWhenUnreachable(t *testing.T) {
	h := newHarness(t, true, 10*time.Millisecond)
	h.companion.pingErr = errors.New("down")
	h.store.put(odesa, `{"vehicles": []}`)

	res, err := h.runner.Add(context.Background(), "shahed136", "OP7")
	require.NoError(t, err)

	assert.False(t, res.Refresh.DelayedScheduled)
	require.NoError(t, h.runner.Wait(context.Background()))
	assert.Zero(t, h.companion.reloadCount())
}

func TestRunner_JournalFailureIsWarning(t *testing.T) {
	h := newHarness(t, false, 0)
	h.journal.err = errors.New("disk I/O error")
	h.store.put(odesa, `{"vehicles": []}`)

	res, err := h.runner.Add(context.Background(), "bm21", "OP7")
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "disk I/O error")
	assert.Equal(t, 1, res.Counts[domain.CollectionArtillery])
}

func TestRunner_LookupErrors(t *testing.T) {
	h := newHarness(t, false, 0)
	ctx := context.Background()

	_, err := h.runner.Add(ctx, "t-90", "OP7")
	assert.ErrorIs(t, err, application.ErrUnknownEquipment)

	_, err = h.runner.Remove(ctx, "shahed136", "OP9")
	assert.ErrorIs(t, err, application.ErrUnknownDatabase)

	var unknown *application.UnknownDatabaseError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"OP1", "OP3", "OP7"}, unknown.Known)

	_, err = h.runner.Add(ctx, "", "OP7")
	var valErr *application.ValidationError
	assert.ErrorAs(t, err, &valErr)

	_, err = h.runner.Add(ctx, "shahed136", "../etc")
	assert.ErrorAs(t, err, &valErr)
}

func TestRunner_Inspect(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{
		"vehicles": [{"id": "uav-shahed136-drone-op7-001", "type": "loitering-munition"}, {"id": "no-id-here-ok"}],
		"vehicleTypes": [{"id": "loitering-munition"}],
		"aircraft": [{"id": "heli-1", "names": [{"value": "Mi-8"}]}]
	}`)

	res, err := h.runner.Inspect(context.Background(), "OP7")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Counts[domain.CollectionVehicles])

	present := map[string]application.Presence{}
	for _, p := range res.Equipment {
		present[p.Equipment.Key] = p
	}
	assert.True(t, present["shahed136"].Present())
	assert.True(t, present["shahed136"].TypeDefined)
	assert.False(t, present["orlan10"].Present())
	assert.True(t, present["mi8"].Present())
	assert.False(t, present["mi8"].TypeDefined)
}

func TestRunner_Summaries(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{"vehicles": [{"id": "a"}, {"id": "b"}], "areas": [{"id": "c"}]}`)
	h.store.put(dataPath("donetsk_oblast.json"), `{"vehicles": []}`)

	summaries, err := h.runner.Summaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	byCode := map[string]application.DatabaseSummary{}
	for _, s := range summaries {
		byCode[s.Database.Code] = s
	}
	assert.Equal(t, 3, byCode["OP7"].Total)
	assert.NoError(t, byCode["OP1"].Err)
	assert.ErrorIs(t, byCode["OP3"].Err, application.ErrFileNotFound)
}

func TestRunner_HistoryAndBackups(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{"vehicles": []}`)
	ctx := context.Background()

	_, err := h.runner.Add(ctx, "su25", "OP7")
	require.NoError(t, err)
	_, err = h.runner.Remove(ctx, "su25", "OP7")
	require.NoError(t, err)

	history, err := h.runner.History(ctx, 10, "op7")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActionRemove, history[0].Action)

	_, backups, err := h.runner.Backups("OP7")
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestRunner_DisabledFeatures(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)
	r := application.NewRunner(application.Dependencies{
		Locator:  fakeLocator{dir: "/data"},
		Store:    newMemStore(),
		Catalog:  cat,
		Registry: domain.NewRegistry(domain.Database{Code: "OP7", DataFile: "odesa_oblast.json"}),
		Logger:   logger.Discard(),
	}, application.Options{DefaultDatabase: "OP7"})
	ctx := context.Background()

	_, err = r.History(ctx, 5, "")
	assert.ErrorIs(t, err, application.ErrJournalDisabled)

	_, err = r.Refresh(ctx, "")
	assert.ErrorIs(t, err, application.ErrServiceDisabled)

	_, err = r.ServiceStatus(ctx, "")
	assert.ErrorIs(t, err, application.ErrServiceDisabled)
}

func TestRunner_Diagnose(t *testing.T) {
	h := newHarness(t, true, 0)
	h.store.put(odesa, `{"vehicles": [{"type": "tank"}]}`)

	d, err := h.runner.Diagnose(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, odesa, d.DataFile)
	assert.NoError(t, d.FileErr)
	assert.NoError(t, d.LoadErr)
	require.Len(t, d.Issues, 1)
	assert.False(t, d.Issues[0].Fatal)
	require.NotNil(t, d.Service)
	assert.True(t, d.Service.Reachable)
	assert.Equal(t, "synced", d.Service.FileStatus.SyncStatus)

	d, err = h.runner.Diagnose(context.Background(), "OP3")
	require.NoError(t, err)
	assert.ErrorIs(t, d.FileErr, application.ErrFileNotFound)
}

func TestSortedCounts(t *testing.T) {
	keys := application.SortedCounts(map[string]int{
		"zeta": 1, "areas": 2, "vehicles": 3, "alpha": 4, "vehicleTypes": 5,
	})
	assert.Equal(t, []string{"vehicles", "vehicleTypes", "areas", "alpha", "zeta"}, keys)
}

func TestRunner_Consolidate(t *testing.T) {
	h := newHarness(t, true, 0)
	h.store.put(odesa, `{"ies4Version": "4.3", "vehicles": [{"id": "v1", "type": ""}, {"id": "v2", "type": "ifv"}]}`)
	h.store.put(dataPath("donetsk_oblast.json"), `{"vehicles": [{"id": "v1", "type": "tank", "status": "active"}], "areas": [{"id": "a1"}]}`)
	target := dataPath("combined.json")
	h.store.put(target, `{"vehicles": []}`)

	res, err := h.runner.Consolidate(context.Background(), []string{"OP7", "OP1", "op7"}, "ALL")
	require.NoError(t, err)

	assert.Equal(t, "ALL", res.Database.Code)
	assert.Equal(t, []string{"OP7", "OP1"}, res.Sources)
	assert.Empty(t, res.Skipped)
	assert.NotEmpty(t, res.BackupPath)
	assert.Equal(t, 1, res.Merge.Duplicates)
	assert.Equal(t, 1, res.Merge.Upgraded)
	assert.Equal(t, map[string]int{domain.CollectionVehicles: 2, domain.CollectionAreas: 1}, res.Counts)
	assert.Equal(t, 3, res.Total())
	assert.Empty(t, res.Warnings)

	doc := h.store.doc(target)
	vehicles := doc.Collection(domain.CollectionVehicles)
	require.Len(t, vehicles, 2)
	assert.Equal(t, "tank", vehicles[0].Field("type"))
	raw, ok := vehicles[0].Raw(domain.FieldSourceFiles)
	require.True(t, ok)
	assert.JSONEq(t, `["odesa_oblast.json", "donetsk_oblast.json"]`, string(raw))
	assert.True(t, doc.Has("consolidationMetadata"))

	// sources are untouched
	assert.Equal(t, "", h.store.doc(odesa).Collection(domain.CollectionVehicles)[0].Field("type"))

	assert.Equal(t, []string{"ALL"}, h.companion.reloads)
	require.Len(t, h.journal.entries, 1)
	assert.Equal(t, domain.ActionConsolidate, h.journal.entries[0].Action)
	assert.Equal(t, res.BackupPath, h.journal.entries[0].BackupPath)
}

func TestRunner_ConsolidateDefaults(t *testing.T) {
	h := newHarness(t, false, 0)
	h.store.put(odesa, `{"vehicles": [{"id": "v1"}]}`)
	h.store.put(dataPath("donetsk_oblast.json"), `{"vehicles": [{"id": "v2"}]}`)

	res, err := h.runner.Consolidate(context.Background(), nil, "ALL")
	require.NoError(t, err)

	assert.Equal(t, []string{"OP7", "OP1"}, res.Sources)
	assert.Equal(t, []string{"OP3"}, res.Skipped)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "zaporizhzhia_oblast.json")
	// no previous target, so nothing to back up
	assert.Empty(t, res.BackupPath)
	assert.Equal(t, 2, h.store.doc(dataPath("combined.json")).Counts()[domain.CollectionVehicles])
}

func TestRunner_ConsolidateErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("target as source", func(t *testing.T) {
		h := newHarness(t, false, 0)
		_, err := h.runner.Consolidate(ctx, []string{"OP7", "ALL"}, "ALL")
		var verr *application.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "sources", verr.Field)
	})

	t.Run("unknown database", func(t *testing.T) {
		h := newHarness(t, false, 0)
		_, err := h.runner.Consolidate(ctx, []string{"OP99"}, "ALL")
		assert.ErrorIs(t, err, application.ErrUnknownDatabase)
	})

	t.Run("no source exists", func(t *testing.T) {
		h := newHarness(t, false, 0)
		_, err := h.runner.Consolidate(ctx, []string{"OP3"}, "ALL")
		var verr *application.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Zero(t, h.store.saves)
	})

	t.Run("invalid source aborts before writing", func(t *testing.T) {
		h := newHarness(t, false, 0)
		h.store.put(odesa, `{"vehicles": [{"id": "v1"}]}`)
		h.store.put(dataPath("donetsk_oblast.json"), `{"vehicles": `)
		target := dataPath("combined.json")
		h.store.put(target, `{"vehicles": []}`)

		_, err := h.runner.Consolidate(ctx, []string{"OP7", "OP1"}, "ALL")
		assert.ErrorIs(t, err, application.ErrParse)
		assert.Zero(t, h.store.saves)
		assert.Empty(t, h.store.backups[target])
	})
}
