package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/student-sync/internal/apperr"
	"github.com/DjordjeVuckovic/student-sync/internal/domain"
	"github.com/DjordjeVuckovic/student-sync/internal/ingest"
	"github.com/DjordjeVuckovic/student-sync/pkg/pagination"
)

type fakeSource struct {
	pages       map[int][]map[string]any
	errAtOffset map[int]error
	fetched     []int
	onFetch     func(offset int)
}

func (f *fakeSource) Fetch(_ context.Context, req pagination.OffsetRequest) (*pagination.Page[map[string]any], error) {
	f.fetched = append(f.fetched, req.Offset)
	if f.onFetch != nil {
		f.onFetch(req.Offset)
	}
	if err, ok := f.errAtOffset[req.Offset]; ok {
		return nil, err
	}
	return pagination.NewPage(f.pages[req.Offset], req), nil
}

type fakeLease struct {
	commits     [][]domain.Student
	errAtCommit map[int]error
	closeCount  int
	onCommit    func()
}

func (l *fakeLease) Commit(_ context.Context, students []domain.Student) error {
	if err, ok := l.errAtCommit[len(l.commits)]; ok {
		return err
	}
	l.commits = append(l.commits, students)
	if l.onCommit != nil {
		l.onCommit()
	}
	return nil
}

func (l *fakeLease) Close() error {
	l.closeCount++
	return nil
}

type fakeSink struct {
	lease   *fakeLease
	openErr error
	opened  int
}

func (s *fakeSink) Open(_ context.Context) (ingest.Lease, error) {
	s.opened++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.lease, nil
}

type mapperFunc func(record map[string]any) (domain.Student, error)

func (f mapperFunc) Map(record map[string]any) (domain.Student, error) {
	return f(record)
}

func nimMapper() mapperFunc {
	return func(record map[string]any) (domain.Student, error) {
		nim, _ := record["nim"].(string)
		program, _ := record["nama_program_studi"].(string)
		if nim == "" {
			return domain.Student{}, fmt.Errorf("record has no nim")
		}
		return domain.Student{NIM: nim, StudyProgram: program}, nil
	}
}

func rec(nim string) map[string]any {
	return map[string]any{"nim": nim, "nama_program_studi": "Sistem Informasi"}
}

func TestDriver_Run_TwoRecordsThenDone(t *testing.T) {
	source := &fakeSource{
		pages: map[int][]map[string]any{
			0: {rec("A1"), rec("A2")},
			2: {},
		},
	}
	lease := &fakeLease{}
	sink := &fakeSink{lease: lease}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(2))
	res, err := driver.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ingest.StateDone, res.State)
	assert.Equal(t, 2, res.LastCommittedOffset)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 2, res.Records)

	// Exactly two fetches: the data page and the empty terminator.
	assert.Equal(t, []int{0, 2}, source.fetched)

	require.Len(t, lease.commits, 1)
	assert.Equal(t, "A1", lease.commits[0][0].NIM)
	assert.Equal(t, "A2", lease.commits[0][1].NIM)

	assert.Equal(t, 1, sink.opened)
	assert.Equal(t, 1, lease.closeCount)
}

func TestDriver_Run_EmptySourceIsDoneWithoutLease(t *testing.T) {
	source := &fakeSource{
		pages: map[int][]map[string]any{0: {}},
	}
	sink := &fakeSink{lease: &fakeLease{}}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ingest.StateDone, res.State)
	assert.Equal(t, 0, res.LastCommittedOffset)
	assert.Equal(t, 0, sink.opened, "no page means no lease")
	assert.Equal(t, []int{0}, source.fetched, "must not fetch past the empty page")
}

func TestDriver_Run_UpstreamErrorFailsWithoutCommit(t *testing.T) {
	source := &fakeSource{
		errAtOffset: map[int]error{0: apperr.NewUpstream("unexpected status from upstream", 502)},
	}
	lease := &fakeLease{}
	sink := &fakeSink{lease: lease}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(context.Background())

	require.Error(t, err)
	var ue *apperr.UpstreamError
	assert.True(t, errors.As(err, &ue))

	assert.Equal(t, ingest.StateFailed, res.State)
	assert.Equal(t, 0, res.LastCommittedOffset)
	assert.Equal(t, 0, sink.opened)
	assert.Empty(t, lease.commits)
}

func TestDriver_Run_CommitFailureKeepsPreviousCursor(t *testing.T) {
	source := &fakeSource{
		pages: map[int][]map[string]any{
			0:   {rec("A1")},
			100: {rec("A2")},
		},
	}
	lease := &fakeLease{
		errAtCommit: map[int]error{1: apperr.NewWriteWrap("insert student A2", fmt.Errorf("connection lost"))},
	}
	sink := &fakeSink{lease: lease}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(context.Background())

	require.Error(t, err)
	var we *apperr.WriteError
	assert.True(t, errors.As(err, &we))

	assert.Equal(t, ingest.StateFailed, res.State)
	assert.Equal(t, 100, res.LastCommittedOffset, "resume cursor must be the offset before the failed page")
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 1, lease.closeCount, "lease must be released even when commit fails")
}

func TestDriver_Run_OpenFailure(t *testing.T) {
	source := &fakeSource{
		pages: map[int][]map[string]any{0: {rec("A1")}},
	}
	sink := &fakeSink{
		openErr: apperr.NewTunnelWrap("dial bastion", fmt.Errorf("connection refused")),
	}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(context.Background())

	require.Error(t, err)
	var te *apperr.TunnelError
	assert.True(t, errors.As(err, &te))

	assert.Equal(t, ingest.StateFailed, res.State)
	assert.Equal(t, 0, res.LastCommittedOffset)
}

func TestDriver_Run_MapperErrorFailsBeforeCommit(t *testing.T) {
	source := &fakeSource{
		pages: map[int][]map[string]any{0: {{"nama_program_studi": "Informatika"}}},
	}
	lease := &fakeLease{}
	sink := &fakeSink{lease: lease}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, ingest.StateFailed, res.State)
	assert.Empty(t, lease.commits)
	assert.Equal(t, 0, sink.opened)
}

func TestDriver_Run_ResumesFromStartOffset(t *testing.T) {
	source := &fakeSource{
		pages: map[int][]map[string]any{
			200: {rec("B1")},
			300: {},
		},
	}
	lease := &fakeLease{}
	sink := &fakeSink{lease: lease}

	driver := ingest.NewDriver(source, nimMapper(), sink,
		ingest.WithStartOffset(200),
		ingest.WithLimit(100),
	)
	res, err := driver.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int{200, 300}, source.fetched)
	assert.Equal(t, 300, res.LastCommittedOffset)
}

func TestDriver_Run_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{pages: map[int][]map[string]any{0: {rec("A1")}}}
	sink := &fakeSink{lease: &fakeLease{}}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ingest.StateFailed, res.State)
	assert.Empty(t, source.fetched)
}

func TestDriver_Run_CancellationHonoredAtPageBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	source := &fakeSource{
		pages: map[int][]map[string]any{
			0:   {rec("A1")},
			100: {rec("A2")},
		},
	}
	lease := &fakeLease{onCommit: cancel}
	sink := &fakeSink{lease: lease}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ingest.StateFailed, res.State)

	// The in-flight page was committed before the cancellation took
	// effect; nothing after the boundary was fetched.
	assert.Equal(t, 100, res.LastCommittedOffset)
	assert.Equal(t, []int{0}, source.fetched)
	require.Len(t, lease.commits, 1)
	assert.Equal(t, 1, lease.closeCount)
}

func TestDriver_Run_MultiplePagesReuseOneLease(t *testing.T) {
	source := &fakeSource{
		pages: map[int][]map[string]any{
			0:   {rec("A1"), rec("A2")},
			100: {rec("A3")},
			200: {},
		},
	}
	lease := &fakeLease{}
	sink := &fakeSink{lease: lease}

	driver := ingest.NewDriver(source, nimMapper(), sink, ingest.WithLimit(100))
	res, err := driver.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ingest.StateDone, res.State)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 200, res.LastCommittedOffset)
	assert.Equal(t, 1, sink.opened, "one lease per run")
	assert.Equal(t, 1, lease.closeCount)
}
