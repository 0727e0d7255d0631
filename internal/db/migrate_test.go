package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationVersionsOrdered(t *testing.T) {
	versions, err := MigrationVersions()
	require.NoError(t, err)
	require.Equal(t, []string{"0001_init.sql", "0002_support_activity.sql", "0003_product_version.sql"}, versions)
}
