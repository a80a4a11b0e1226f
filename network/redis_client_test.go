package network_test

import (
	"context"
	"testing"
	"time"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *network.RedisClient {
	RedisTestServer.FlushAll()
	client := network.NewRedisClient(RedisTestServer.Addr(), "", 0)
	require.NotNil(t, client)
	return client
}

func testConnector(internalID, name string, active, auto bool, scope ...string) *registry.Connector {
	return &registry.Connector{
		Active:      active,
		AutoTrigger: auto,
		ID:          "id-" + internalID,
		InternalID:  internalID,
		Name:        name,
		Scope:       scope,
		Type:        constants.ConnectorTypeImportFile,
	}
}

func TestRedisPing(t *testing.T) {
	client := getRedisClient(t)
	response, err := client.Ping()
	assert.Nil(t, err)
	assert.Equal(t, "PONG", response)
}

func TestWorkSaveAndGet(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	work := registry.NewWork(constants.WorkTypeImport, "ulysses.txt", "conn-1", "import/global/ulysses.txt", "user-1")
	require.Nil(t, client.WorkSave(ctx, work))

	saved, err := client.WorkGet(ctx, work.ID)
	require.Nil(t, err)
	assert.Equal(t, work.ID, saved.ID)
	assert.Equal(t, work.Name, saved.Name)
	assert.Equal(t, work.SourceID, saved.SourceID)
	assert.Equal(t, constants.WorkStatusWait, saved.Status)

	_, err = client.WorkGet(ctx, "does-not-exist")
	assert.NotNil(t, err)
}

func TestCreateWork(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	user := &registry.User{ID: "user-1"}
	connector := testConnector("internal-1", "ImportFileStix", true, true, "application/json")

	work, err := client.CreateWork(ctx, user, connector, "bundle.json", "import/global/bundle.json")
	require.Nil(t, err)
	assert.Equal(t, constants.WorkTypeImport, work.Type)
	assert.Equal(t, connector.ID, work.ConnectorID)
	assert.Equal(t, "user-1", work.UserID)

	works, err := client.WorksForSource(ctx, "import/global/bundle.json")
	require.Nil(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, work.ID, works[0].ID)

	anonymous, err := client.CreateWork(ctx, nil, connector, "bundle.json", "import/global/other.json")
	require.Nil(t, err)
	assert.Equal(t, "", anonymous.UserID)
}

func TestDeleteWorkForFile(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	fileID := "import/global/report.pdf"
	for i := 0; i < 3; i++ {
		work := registry.NewWork(constants.WorkTypeImport, "report.pdf", "conn", fileID, "user")
		require.Nil(t, client.WorkSave(ctx, work))
	}
	other := registry.NewWork(constants.WorkTypeImport, "other.pdf", "conn", "import/global/other.pdf", "user")
	require.Nil(t, client.WorkSave(ctx, other))

	works, err := client.WorksForSource(ctx, fileID)
	require.Nil(t, err)
	assert.Len(t, works, 3)

	require.Nil(t, client.DeleteWorkForFile(ctx, fileID))
	works, err = client.WorksForSource(ctx, fileID)
	require.Nil(t, err)
	assert.Empty(t, works)

	_, err = client.WorkGet(ctx, other.ID)
	assert.Nil(t, err)

	// Nothing to delete is fine.
	assert.Nil(t, client.DeleteWorkForFile(ctx, "import/global/nothing.pdf"))
}

func TestExportWorksForSource(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	path := "export/Report/1234"

	running := registry.NewWork(constants.WorkTypeExport, "export-1", "conn", path, "user")
	running.MarkInProgress("started")
	waiting := registry.NewWork(constants.WorkTypeExport, "export-2", "conn", path, "user")
	waiting.CreatedAt = waiting.CreatedAt.Add(time.Second)
	done := registry.NewWork(constants.WorkTypeExport, "export-3", "conn", path, "user")
	done.Status = constants.WorkStatusComplete
	imported := registry.NewWork(constants.WorkTypeImport, "import-1", "conn", path, "user")
	for _, w := range []*registry.Work{running, waiting, done, imported} {
		require.Nil(t, client.WorkSave(ctx, w))
	}

	works, err := client.ExportWorksForSource(ctx, path)
	require.Nil(t, err)
	require.Len(t, works, 2)
	assert.Equal(t, running.ID, works[0].ID)
	assert.Equal(t, waiting.ID, works[1].ID)
}

func TestConnectorsForImport(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	connectors := []*registry.Connector{
		testConnector("c1", "Zeta", true, true, "application/pdf"),
		testConnector("c2", "Alpha", true, false, "Application/PDF", "text/plain"),
		testConnector("c3", "Beta", false, true, "application/pdf"),
		testConnector("c4", "Gamma", true, true, "text/plain"),
	}
	exporter := testConnector("c5", "Exporter", true, true, "application/pdf")
	exporter.Type = "INTERNAL_EXPORT_FILE"
	connectors = append(connectors, exporter)
	for _, c := range connectors {
		require.Nil(t, client.ConnectorSave(ctx, c))
	}

	found, err := client.ConnectorsForImport(ctx, "application/pdf", false)
	require.Nil(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Alpha", found[0].Name)
	assert.Equal(t, "Zeta", found[1].Name)

	found, err = client.ConnectorsForImport(ctx, "application/pdf", true)
	require.Nil(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "c1", found[0].InternalID)

	require.Nil(t, client.ConnectorDelete(ctx, "c1"))
	found, err = client.ConnectorsForImport(ctx, "application/pdf", true)
	require.Nil(t, err)
	assert.Empty(t, found)

	found, err = client.ConnectorsForImport(ctx, "image/png", false)
	require.Nil(t, err)
	assert.Empty(t, found)
}

func TestRedisErrors(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	RedisTestServer.SetError("ERR server down")
	defer RedisTestServer.SetError("")

	work := registry.NewWork(constants.WorkTypeImport, "x", "c", "s", "u")
	assert.NotNil(t, client.WorkSave(ctx, work))
	_, err := client.ConnectorsForImport(ctx, "text/plain", false)
	assert.NotNil(t, err)
}
