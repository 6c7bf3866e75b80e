package pgpipe

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pgpipe/codec"
	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// testDSN skips the calling test unless PGPIPE_TEST_DSN is set to the DSN
// of a PostgreSQL-compatible server, the standard database/driver convention
// for gating tests that need a live server instead of mocking the wire.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("PGPIPE_TEST_DSN")
	if dsn == "" {
		t.Skip("PGPIPE_TEST_DSN not set, skipping live-server integration test")
	}
	return dsn
}

// TestSeedScenario_RoundTripInteger covers spec.md §8 seed scenario 1.
func TestSeedScenario_RoundTripInteger(t *testing.T) {
	t.Parallel()
	dsn := testDSN(t)

	ctx := context.Background()
	conn, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer conn.Close(ctx)

	res, err := conn.Query(ctx, "SELECT $1::INT4", codec.Int32(42))
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount())
	require.EqualValues(t, 23, res.FieldOID(0))

	row, err := res.At(0)
	require.NoError(t, err)
	field, err := row.At(0)
	require.NoError(t, err)
	got, err := AsInt32(field)
	require.NoError(t, err)
	require.EqualValues(t, 42, got)
}

// TestSeedScenario_ArrayRoundTrip covers spec.md §8 seed scenario 2.
func TestSeedScenario_ArrayRoundTrip(t *testing.T) {
	t.Parallel()
	dsn := testDSN(t)

	ctx := context.Background()
	conn, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer conn.Close(ctx)

	textOID, textArrayOID := oidmap.Builtin[oidmap.KindString].Scalar, oidmap.Builtin[oidmap.KindString].Array
	arr, err := codec.NewArray(textOID, textArrayOID, codec.String("1"), codec.String("2"), codec.String("3"))
	require.NoError(t, err)

	res, err := conn.Query(ctx, "SELECT $1", arr)
	require.NoError(t, err)
	require.EqualValues(t, textArrayOID, res.FieldOID(0))

	row, err := res.At(0)
	require.NoError(t, err)
	field, err := row.At(0)
	require.NoError(t, err)
	_, elems, err := AsArray(field)
	require.NoError(t, err)
	require.Len(t, elems, 3)
}

// TestSeedScenario_Composite covers spec.md §8 seed scenario 3: a
// two-level nested composite (company containing an array of employee).
func TestSeedScenario_Composite(t *testing.T) {
	t.Parallel()
	dsn := testDSN(t)

	ctx := context.Background()
	conn, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer conn.Close(ctx)

	_, err = conn.Query(ctx, "DROP TYPE IF EXISTS company;")
	require.NoError(t, err)
	_, err = conn.Query(ctx, "DROP TYPE IF EXISTS employee;")
	require.NoError(t, err)
	_, err = conn.Query(ctx, "CREATE TYPE employee AS (name TEXT, phone TEXT);")
	require.NoError(t, err)
	_, err = conn.Query(ctx, "CREATE TYPE company AS (id INT8, employees employee[]);")
	require.NoError(t, err)

	type employeeKey struct{}
	type companyKey struct{}
	conn.types.Register(employeeKey{}, "employee")
	conn.types.Register(companyKey{}, "company")

	// A bare probe value (no members needed) is enough to make Query's
	// discovery pass fold in the OIDs for each key; building the real,
	// populated composites below then has resolved OIDs to read.
	_, err = conn.Query(ctx, "SELECT 1", codec.Composite{Key: employeeKey{}})
	require.NoError(t, err)
	_, err = conn.Query(ctx, "SELECT 1", codec.Composite{Key: companyKey{}})
	require.NoError(t, err)

	jane, err := codec.NewComposite(employeeKey{}, conn.types, codec.String("Jane"), codec.String("555-1"))
	require.NoError(t, err)
	tom, err := codec.NewComposite(employeeKey{}, conn.types, codec.String("Tom"), codec.String("555-2"))
	require.NoError(t, err)

	employeeArrayOID, err := conn.types.ArrayOID(employeeKey{})
	require.NoError(t, err)
	employeesArr, err := codec.NewArray(0, employeeArrayOID, jane, tom)
	require.NoError(t, err)

	company, err := codec.NewComposite(companyKey{}, conn.types, codec.Int64(104), employeesArr)
	require.NoError(t, err)

	res, err := conn.Query(ctx, "SELECT $1", company)
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount())

	row, err := res.At(0)
	require.NoError(t, err)
	field, err := row.At(0)
	require.NoError(t, err)

	members, err := AsComposite(field, []codec.ExpectedMember{
		{Name: "id", OID: 20},
		{Name: "employees", OID: employeeArrayOID},
	})
	require.NoError(t, err)
	require.Len(t, members, 2)

	id, err := codec.DecodeInt64(members[0].Payload)
	require.NoError(t, err)
	require.EqualValues(t, 104, id)

	_, employeePayloads, err := codec.DecodeArray(members[1].Payload)
	require.NoError(t, err)
	require.Len(t, employeePayloads, 2)

	names := make([]string, len(employeePayloads))
	phones := make([]string, len(employeePayloads))
	for i, payload := range employeePayloads {
		empMembers, err := codec.DecodeComposite(payload, nil)
		require.NoError(t, err)
		require.Len(t, empMembers, 2)

		name, err := codec.DecodeString(empMembers[0].Payload)
		require.NoError(t, err)
		phone, err := codec.DecodeString(empMembers[1].Payload)
		require.NoError(t, err)
		names[i], phones[i] = name, phone
	}
	require.ElementsMatch(t, []string{"Jane", "Tom"}, names)
	require.ElementsMatch(t, []string{"555-1", "555-2"}, phones)
}

// TestSeedScenario_Pipeline covers spec.md §8 seed scenario 4.
func TestSeedScenario_Pipeline(t *testing.T) {
	t.Parallel()
	dsn := testDSN(t)

	ctx := context.Background()
	conn, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer conn.Close(ctx)

	results, err := conn.ExecPipeline(ctx, func(p *Pipeline) error {
		if _, err := p.Query("DROP TABLE IF EXISTS t;"); err != nil {
			return err
		}
		if _, err := p.Query("CREATE TABLE t(x INT);"); err != nil {
			return err
		}
		if _, err := p.Query("INSERT INTO t VALUES (1),(2);"); err != nil {
			return err
		}
		if _, err := p.Query("SELECT sum(x) FROM t;"); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	row, err := results[3].At(0)
	require.NoError(t, err)
	field, err := row.At(0)
	require.NoError(t, err)
	sum, err := AsInt64(field)
	require.NoError(t, err)
	require.EqualValues(t, 3, sum)
}

// TestSeedScenario_Notification covers spec.md §8 seed scenario 5.
func TestSeedScenario_Notification(t *testing.T) {
	t.Parallel()
	dsn := testDSN(t)

	ctx := context.Background()
	conn, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer conn.Close(ctx)

	_, err = conn.Query(ctx, "LISTEN ch;")
	require.NoError(t, err)

	notifier, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer notifier.Close(ctx)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = notifier.Query(ctx, "NOTIFY ch, '10';")
	}()

	notifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	note, err := conn.ReceiveNotification(notifyCtx)
	require.NoError(t, err)
	require.Equal(t, "ch", note.Channel)
	require.Equal(t, "10", note.Payload)
}

// TestSeedScenario_PoolSaturation covers spec.md §8 seed scenario 6: a
// pool of size 4, eight tasks each acquiring, sleeping 3 seconds, and
// releasing; exactly four run concurrently.
func TestSeedScenario_PoolSaturation(t *testing.T) {
	dsn := testDSN(t)

	pool := NewPool(dsn, WithPoolSize(4))
	defer pool.Close(context.Background())

	var mu sync.Mutex
	var concurrent, maxConcurrent int

	done := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		go func() {
			ctx := context.Background()
			lease, err := pool.Acquire(ctx)
			require.NoError(t, err)
			defer lease.Release(ctx)

			mu.Lock()
			concurrent++
			if concurrent > maxConcurrent {
				maxConcurrent = concurrent
			}
			mu.Unlock()

			time.Sleep(3 * time.Second)

			mu.Lock()
			concurrent--
			mu.Unlock()

			done <- struct{}{}
		}()
	}

	for i := 0; i < 8; i++ {
		<-done
	}
	require.Equal(t, 4, maxConcurrent)
}
