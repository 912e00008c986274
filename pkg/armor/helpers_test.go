package armor

import (
	"sync"
	"testing"
	"time"

	"github.com/saylorsolutions/wordarmor/pkg/wordlist"
	"github.com/stretchr/testify/require"
)

var (
	testCatalogOnce sync.Once
	testCatalog     *Catalog
	testCatalogErr  error
	testDate        = Date{Year: 2024, Month: time.May, Day: 1}
)

func catalog(t testing.TB) *Catalog {
	t.Helper()
	testCatalogOnce.Do(func() {
		testCatalog, testCatalogErr = NewCatalog(wordlist.Default())
	})
	require.NoError(t, testCatalogErr)
	return testCatalog
}

func table(t testing.TB) *Table {
	t.Helper()
	tbl, err := BuildTable(catalog(t), SecretFromUint64(69), testDate)
	require.NoError(t, err)
	return tbl
}
