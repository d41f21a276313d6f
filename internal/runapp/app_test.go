package runapp

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efrenamer/internal/config"
	"efrenamer/internal/edmx"
	"efrenamer/internal/logging"
	"efrenamer/internal/naming"
	"efrenamer/internal/selection"
)

const (
	modelPath   = "/work/Shop.edmx"
	diagramPath = "/work/Shop.edmx.diagram"
)

const shopModel = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="3.0" xmlns:edmx="http://schemas.microsoft.com/ado/2009/11/edmx">
  <edmx:Runtime>
    <edmx:ConceptualModels>
      <Schema Namespace="ShopModel" xmlns="http://schemas.microsoft.com/ado/2009/11/edm">
        <EntityContainer Name="ShopEntities">
          <EntitySet Name="person" EntityType="ShopModel.person" />
        </EntityContainer>
        <EntityType Name="person">
          <Key>
            <PropertyRef Name="person_id" />
          </Key>
          <Property Name="person_id" Type="Int32" Nullable="false" />
        </EntityType>
      </Schema>
    </edmx:ConceptualModels>
    <edmx:Mappings>
      <Mapping Space="C-S" xmlns="http://schemas.microsoft.com/ado/2009/11/mapping/cs">
        <EntityContainerMapping StorageEntityContainer="ShopStore" CdmEntityContainer="ShopEntities">
          <EntitySetMapping Name="person">
            <EntityTypeMapping TypeName="ShopModel.person">
              <MappingFragment StoreEntitySet="person">
                <ScalarProperty Name="person_id" ColumnName="person_id" />
              </MappingFragment>
            </EntityTypeMapping>
          </EntitySetMapping>
        </EntityContainerMapping>
      </Mapping>
    </edmx:Mappings>
  </edmx:Runtime>
</edmx:Edmx>
`

const shopDiagram = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="3.0" xmlns:edmx="http://schemas.microsoft.com/ado/2009/11/edmx">
  <Designer xmlns="http://schemas.microsoft.com/ado/2009/11/edmx">
    <edmx:Diagrams>
      <Diagram Name="Diagram1">
        <EntityTypeShape EntityType="ShopModel.person" PointX="0.75" PointY="0.75" />
      </Diagram>
    </edmx:Diagrams>
  </Designer>
</edmx:Edmx>
`

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type harness struct {
	fs   afero.Fs
	cfg  *config.Config
	logs *bytes.Buffer
}

func newHarness(t *testing.T, withDiagram bool) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, modelPath, []byte(shopModel), 0o644))
	if withDiagram {
		require.NoError(t, afero.WriteFile(fs, diagramPath, []byte(shopDiagram), 0o644))
	}

	return &harness{
		fs: fs,
		cfg: &config.Config{
			Model: config.ModelConfig{
				File:               modelPath,
				DiagramSuffix:      ".diagram",
				BackupEnabled:      true,
				BackupSuffixFormat: ".20060102-150405",
				ValidateNamespace:  true,
			},
			Naming:    naming.DefaultConfig(),
			Selection: selection.Config{Entities: []string{"*"}},
			Observability: config.ObservabilityConfig{
				ServiceName: "efrenamer-test",
				Logging:     config.LoggingConfig{Level: "info", Format: "text"},
			},
		},
		logs: &bytes.Buffer{},
	}
}

func (h *harness) run(t *testing.T) (*Result, error) {
	t.Helper()
	logger := logging.NewLogger(logging.Config{Level: "info", Format: "text", Output: h.logs})
	app, err := New(h.cfg, logger, WithFs(h.fs), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	require.NoError(t, app.Init(context.Background()))
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app.Run(context.Background())
}

func (h *harness) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(h.fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_RenamesModelAndDiagram(t *testing.T) {
	h := newHarness(t, true)

	result, err := h.run(t)
	require.NoError(t, err)

	model := h.read(t, modelPath)
	assert.Contains(t, model, `<EntitySet Name="People" EntityType="ShopModel.Person"/>`)
	assert.Contains(t, model, `<EntityType Name="Person">`)
	assert.Contains(t, model, `<PropertyRef Name="PersonId"/>`)
	assert.Contains(t, model, `<EntitySetMapping Name="People">`)
	assert.Contains(t, model, `<EntityTypeMapping TypeName="ShopModel.Person">`)
	assert.Contains(t, model, `<ScalarProperty Name="PersonId" ColumnName="person_id"/>`)

	diagram := h.read(t, diagramPath)
	assert.Contains(t, diagram, `EntityType="ShopModel.Person"`)

	assert.True(t, result.DiagramFound)
	assert.Equal(t, modelPath+".20260102-030405", result.ModelBackup)
	assert.Equal(t, diagramPath+".20260102-030405", result.DiagramBackup)
	assert.Equal(t, shopModel, h.read(t, result.ModelBackup))
	assert.Equal(t, shopDiagram, h.read(t, result.DiagramBackup))
	assert.Equal(t, 2, result.Resolved)
	assert.Empty(t, result.Collisions)
	assert.NotEmpty(t, result.RunID)

	logs := h.logs.String()
	assert.Contains(t, logs, "run_id="+result.RunID)
	assert.Contains(t, logs, "name resolved")
	assert.Contains(t, logs, "run complete")
}

func TestRun_MissingDiagramIsSkipped(t *testing.T) {
	h := newHarness(t, false)

	result, err := h.run(t)
	require.NoError(t, err)

	assert.False(t, result.DiagramFound)
	assert.Equal(t, diagramPath, result.DiagramPath)
	assert.Contains(t, h.read(t, modelPath), `Name="People"`)
	assert.Contains(t, h.logs.String(), "diagram not found, skipping")
}

func TestRun_BackupsDisabled(t *testing.T) {
	h := newHarness(t, false)
	h.cfg.Model.BackupEnabled = false

	result, err := h.run(t)
	require.NoError(t, err)

	assert.Empty(t, result.ModelBackup)
	entries, err := afero.ReadDir(h.fs, "/work")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Shop.edmx", entries[0].Name())
}

func TestRun_RuleWarningsAreLogged(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, afero.WriteFile(h.fs, "/work/names.txt", []byte("person=Customer\nbroken line\n"), 0o644))
	h.cfg.Rules.NameMapFile = "/work/names.txt"

	result, err := h.run(t)
	require.NoError(t, err)

	require.Len(t, result.RuleWarnings, 1)
	assert.Equal(t, 2, result.RuleWarnings[0].Line)
	assert.Contains(t, h.logs.String(), "rule file entry ignored")
	assert.Contains(t, h.logs.String(), "phase=load_rules")
	assert.Contains(t, h.logs.String(), "run_id="+result.RunID)
	assert.Contains(t, h.read(t, modelPath), `<EntitySet Name="Customers" EntityType="ShopModel.Customer"/>`)
}

func TestRun_MissingRuleFileFails(t *testing.T) {
	h := newHarness(t, false)
	h.cfg.Rules.PartMapFile = "/work/parts.txt"

	_, err := h.run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rules")
	assert.Equal(t, shopModel, h.read(t, modelPath))
}

func TestRun_StructuralErrorLeavesModelUntouched(t *testing.T) {
	h := newHarness(t, false)
	broken := strings.Replace(shopModel, "<MappingFragment StoreEntitySet=\"person\">", "<Other>", 1)
	broken = strings.Replace(broken, "</MappingFragment>", "</Other>", 1)
	require.NoError(t, afero.WriteFile(h.fs, modelPath, []byte(broken), 0o644))

	_, err := h.run(t)

	var structural *edmx.StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, "MappingFragment", structural.Element)
	assert.Equal(t, broken, h.read(t, modelPath))

	exists, err := afero.Exists(h.fs, modelPath+".20260102-030405")
	require.NoError(t, err)
	assert.False(t, exists, "no backup is made when nothing is written")
}

func TestRun_DiagramFailureKeepsSavedModel(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, afero.WriteFile(h.fs, diagramPath, []byte(`<edmx:Edmx xmlns:edmx="urn:edmx"/>`), 0o644))

	result, err := h.run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to rename diagram")

	assert.True(t, result.DiagramFound)
	assert.Contains(t, h.read(t, modelPath), `Name="People"`)
}

func TestRun_NamespaceMismatch(t *testing.T) {
	h := newHarness(t, false)
	mismatched := strings.Replace(shopModel, `EntityType="ShopModel.person"`, `EntityType="OtherModel.person"`, 1)
	require.NoError(t, afero.WriteFile(h.fs, modelPath, []byte(mismatched), 0o644))

	_, err := h.run(t)
	require.ErrorIs(t, err, edmx.ErrNamespaceMismatch)
}

func TestRun_WritesMetricsTextfile(t *testing.T) {
	h := newHarness(t, true)
	h.cfg.Observability.MetricsTextfile = "/metrics/efrenamer.prom"

	_, err := h.run(t)
	require.NoError(t, err)

	text := h.read(t, "/metrics/efrenamer.prom")
	assert.Contains(t, text, "efrenamer_elements_renamed")
	assert.Contains(t, text, `section="diagram_shape"`)
	assert.Contains(t, text, "efrenamer_run_duration")
}

func TestRun_BeforeInitFails(t *testing.T) {
	h := newHarness(t, false)
	app, err := New(h.cfg, logging.NewLogger(logging.Config{Output: h.logs}), WithFs(h.fs))
	require.NoError(t, err)

	_, err = app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestNew_RequiresConfigAndLogger(t *testing.T) {
	_, err := New(nil, logging.NewLogger(logging.Config{}))
	require.Error(t, err)

	_, err = New(&config.Config{}, nil)
	require.Error(t, err)
}

func TestShutdown_Idempotent(t *testing.T) {
	app := &App{logger: logging.NewLogger(logging.Config{Output: &bytes.Buffer{}})}
	var calls int32
	app.cleanup.push("test", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, app.Shutdown(ctx))
	require.NoError(t, app.Shutdown(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCleanupStack_RunsInReverseOrder(t *testing.T) {
	var order []string
	var stack cleanupStack
	stack.push("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	stack.push("second", func(context.Context) error {
		order = append(order, "second")
		return errors.New("boom")
	})

	var logs bytes.Buffer
	err := stack.run(context.Background(), logging.NewLogger(logging.Config{Output: &logs}))

	assert.Equal(t, []string{"second", "first"}, order)
	require.Error(t, err)
	assert.Equal(t, "second: boom", err.Error())
	assert.Contains(t, logs.String(), "cleanup error")
}

func TestShutdown_ReportsFlushFailure(t *testing.T) {
	app := &App{logger: logging.NewLogger(logging.Config{Output: &bytes.Buffer{}})}
	flushErr := errors.New("exporter unreachable")
	app.cleanup.push("logger provider", func(context.Context) error { return nil })
	app.cleanup.push("tracer provider", func(context.Context) error { return flushErr })

	err := app.Shutdown(context.Background())
	require.ErrorIs(t, err, flushErr)
	assert.Contains(t, err.Error(), "tracer provider")

	require.NoError(t, app.Shutdown(context.Background()))
}
