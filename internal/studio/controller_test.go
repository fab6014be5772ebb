package studio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-studio/internal/model"
	"tracker-studio/internal/params"
	"tracker-studio/internal/processor"
	"tracker-studio/internal/resultstore"
	"tracker-studio/internal/selection"
	"tracker-studio/internal/stubserver"
)

type harness struct {
	ctrl     *Controller
	controls *params.Controls
	store    *resultstore.Store

	mu      sync.Mutex
	notices []*Error
}

func (h *harness) recorded() []*Error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Error, len(h.notices))
	copy(out, h.notices)
	return out
}

func newHarness(t *testing.T, proc Processor) *harness {
	t.Helper()
	store, err := resultstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{controls: params.New(), store: store}
	ctrl, err := New(Options{
		Selection: selection.NewStore(),
		Params:    h.controls,
		Processor: proc,
		Results:   store,
		Notify: func(e *Error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.notices = append(h.notices, e)
		},
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	h.ctrl = ctrl
	return h
}

func newClient(t *testing.T, endpoint string, timeout time.Duration) *processor.Client {
	t.Helper()
	c, err := processor.New(processor.Options{Endpoint: endpoint, Timeout: timeout})
	require.NoError(t, err)
	return c
}

func startStub(t *testing.T, opts stubserver.Options) (*stubserver.Server, string) {
	t.Helper()
	stub := stubserver.New(opts)
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return stub, srv.URL + stubserver.ProcessPath
}

func TestSelectFile_LatestSelectionWins(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))

	assert.Equal(t, model.PhaseAwaitingFile, h.ctrl.Phase())
	for _, name := range []string{"a.mp4", "b.mov", "c.avi"} {
		require.NoError(t, h.ctrl.SelectFile(selection.FromBytes(name, []byte(name))))
	}

	sel, ok := h.ctrl.CurrentSelection()
	require.True(t, ok)
	assert.Equal(t, "c.avi", sel.Name)
	assert.Equal(t, model.PhaseReadyToRender, h.ctrl.Phase())
}

func TestSubmit_WithoutFileFiresNoticeAndMakesNoRequest(t *testing.T) {
	stub, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))

	a, err := h.ctrl.Submit(context.Background())
	assert.Nil(t, a)
	require.ErrorIs(t, err, ErrNoFileSelected)

	assert.Equal(t, 0, stub.Count())
	assert.Equal(t, model.PhaseAwaitingFile, h.ctrl.Phase())
	notices := h.recorded()
	require.Len(t, notices, 1)
	assert.Equal(t, MessageNoFileSelected, notices[0].Message)

	v := h.ctrl.View()
	assert.Equal(t, idleTrigger(), v.Trigger)
	assert.False(t, v.DownloadVisible)
}

func TestSubmit_DisablesTriggerUntilSettled(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte{1, 2})))

	a, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	v := h.ctrl.View()
	assert.Equal(t, model.PhaseRendering, v.Phase)
	assert.Equal(t, Trigger{Label: TriggerBusyLabel, Enabled: false}, v.Trigger)
	assert.Equal(t, a.ID, v.AttemptID)

	assert.Nil(t, h.ctrl.Settle(a.Run()))
	assert.Equal(t, idleTrigger(), h.ctrl.View().Trigger)
}

func TestSubmit_SecondSubmitWhileRenderingIsRejected(t *testing.T) {
	stub, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte{1})))

	a, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	_, err = h.ctrl.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Empty(t, h.recorded())

	h.ctrl.Settle(a.Run())
	assert.Equal(t, 1, stub.Count())
}

func TestSubmitAndWait_SuccessShowsExactBytesAndReleasesPrior(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte("first"))))

	first, err := h.ctrl.SubmitAndWait(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte("second"))))
	assert.True(t, first.Released(), "new selection must release the shown result")

	second, err := h.ctrl.SubmitAndWait(context.Background())
	require.NoError(t, err)

	v := h.ctrl.View()
	assert.Equal(t, model.PhaseResultReady, v.Phase)
	assert.True(t, v.DownloadVisible)
	assert.Same(t, second, v.Result)
	assert.Equal(t, idleTrigger(), v.Trigger)

	data, err := second.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Empty(t, h.recorded())
}

func TestResubmitFromResultReadyReleasesPrevious(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte("v"))))

	first, err := h.ctrl.SubmitAndWait(context.Background())
	require.NoError(t, err)
	second, err := h.ctrl.SubmitAndWait(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Released())
	assert.False(t, second.Released())
	assert.Equal(t, model.PhaseResultReady, h.ctrl.Phase())
}

func TestSubmitAndWait_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/process"
	srv.Close()

	h := newHarness(t, newClient(t, endpoint, 0))
	sel := selection.FromBytes("clip.mp4", []byte{1})
	require.NoError(t, h.ctrl.SelectFile(sel))

	handle, err := h.ctrl.SubmitAndWait(context.Background())
	assert.Nil(t, handle)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindConnectionFailed, e.Kind)

	v := h.ctrl.View()
	assert.Equal(t, model.PhaseReadyToRender, v.Phase)
	assert.Equal(t, "clip.mp4", v.Selection.Name)
	assert.Equal(t, idleTrigger(), v.Trigger)
	assert.False(t, v.DownloadVisible)

	notices := h.recorded()
	require.Len(t, notices, 1)
	assert.Equal(t, MessageConnectionFailed, notices[0].Message)
}

func TestSubmitAndWait_ServerErrorIsProcessingFailure(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{FailStatus: http.StatusInternalServerError})
	h := newHarness(t, newClient(t, endpoint, 0))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte{1})))

	_, err := h.ctrl.SubmitAndWait(context.Background())
	require.ErrorIs(t, err, &Error{Kind: KindProcessingFailed})

	v := h.ctrl.View()
	assert.Equal(t, model.PhaseReadyToRender, v.Phase)
	assert.Nil(t, v.Result)
	assert.Equal(t, idleTrigger(), v.Trigger)

	notices := h.recorded()
	require.Len(t, notices, 1)
	assert.Equal(t, KindProcessingFailed, notices[0].Kind)
	assert.Equal(t, MessageProcessingFailed, notices[0].Message)
	assert.Same(t, notices[0], v.Notice)

	h.ctrl.DismissNotice()
	assert.Nil(t, h.ctrl.View().Notice)
}

func TestSubmitAndWait_TimeoutIsConnectionFailure(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{Delay: 5 * time.Second})
	h := newHarness(t, newClient(t, endpoint, 50*time.Millisecond))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte{1})))

	_, err := h.ctrl.SubmitAndWait(context.Background())
	require.ErrorIs(t, err, &Error{Kind: KindConnectionFailed})
	assert.Equal(t, idleTrigger(), h.ctrl.View().Trigger)
}

func TestSubmit_SendsSnapshotOfControls(t *testing.T) {
	stub, endpoint := startStub(t, stubserver.Options{Reply: []byte{0x00, 0x01}})
	h := newHarness(t, newClient(t, endpoint, 0))

	require.NoError(t, h.controls.Set(model.FieldMaxBlobs, "5"))
	require.NoError(t, h.controls.Set(model.FieldLabelType, params.LabelCustom))
	require.NoError(t, h.controls.Set(model.FieldCustomText, "hi"))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte("raw video"))))

	a, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	// edits after submit belong to the next render
	require.NoError(t, h.controls.Set(model.FieldMaxBlobs, "99"))

	assert.Nil(t, h.ctrl.Settle(a.Run()))

	sub, ok := stub.Last()
	require.True(t, ok)
	assert.Equal(t, "clip.mp4", sub.Filename)
	assert.Equal(t, "5", sub.Fields[model.FieldMaxBlobs])
	assert.Equal(t, "custom", sub.Fields[model.FieldLabelType])
	assert.Equal(t, "hi", sub.Fields[model.FieldCustomText])
	assert.Equal(t, "Basic Rectangle", sub.Fields[model.FieldShape])
	assert.Equal(t, "#00ff00", sub.Fields[model.FieldBoxColor])
	assert.Equal(t, "2", sub.Fields[model.FieldStrokeWidth])
	assert.Equal(t, "None", sub.Fields[model.FieldConnection])
	assert.Equal(t, "#ff9600", sub.Fields[model.FieldConnColor])
	assert.Equal(t, "#ffffff", sub.Fields[model.FieldTextColor])
	assert.Equal(t, "64", sub.Fields[model.FieldMinSize])

	v := h.ctrl.View()
	assert.Equal(t, model.PhaseResultReady, v.Phase)
	assert.True(t, v.DownloadVisible)
	data, err := v.Result.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, data)
}

func TestSelectFile_DuringRenderSupersedesAttempt(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{Delay: 5 * time.Second})
	h := newHarness(t, newClient(t, endpoint, 0))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("old.mp4", []byte{1})))

	a, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	done := make(chan Outcome, 1)
	go func() { done <- a.Run() }()

	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("new.mp4", []byte{2})))
	v := h.ctrl.View()
	assert.Equal(t, model.PhaseReadyToRender, v.Phase)
	assert.Equal(t, idleTrigger(), v.Trigger)
	assert.Empty(t, v.AttemptID)

	var out Outcome
	select {
	case out = <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("superseded attempt did not stop")
	}
	assert.Error(t, out.Err)
	assert.Nil(t, h.ctrl.Settle(out))
	assert.Equal(t, model.PhaseReadyToRender, h.ctrl.Phase())
	assert.Empty(t, h.recorded())
}

func TestSettle_StaleSuccessIsReleased(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte("v"))))

	a, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	out := a.Run()
	require.NoError(t, out.Err)

	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("other.mp4", []byte("w"))))
	assert.Nil(t, h.ctrl.Settle(out))
	assert.True(t, out.Result.Released())
	assert.Nil(t, h.ctrl.Result())
}

type panickingProcessor struct{}

func (panickingProcessor) Process(context.Context, model.FileSelection, model.RenderParameters) (*processor.Result, error) {
	panic("boom")
}

func TestRun_PanicBecomesConnectionFailure(t *testing.T) {
	h := newHarness(t, panickingProcessor{})
	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte{1})))

	_, err := h.ctrl.SubmitAndWait(context.Background())
	require.ErrorIs(t, err, &Error{Kind: KindConnectionFailed})
	assert.Equal(t, idleTrigger(), h.ctrl.View().Trigger)
	assert.Equal(t, model.PhaseReadyToRender, h.ctrl.Phase())
}

func TestDownload_SavesShownResult(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{Reply: []byte("rendered")})
	h := newHarness(t, newClient(t, endpoint, 0))

	_, err := h.ctrl.Download(filepath.Join(t.TempDir(), "x.mp4"))
	require.ErrorIs(t, err, ErrNoResult)

	require.NoError(t, h.ctrl.SelectFile(selection.FromBytes("clip.mp4", []byte("v"))))
	_, err = h.ctrl.SubmitAndWait(context.Background())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "pro_tracked_output.mp4")
	path, err := h.ctrl.Download(dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)
	assert.FileExists(t, dest)
}

func TestClose_RejectsFurtherActions(t *testing.T) {
	_, endpoint := startStub(t, stubserver.Options{})
	h := newHarness(t, newClient(t, endpoint, 0))
	h.ctrl.Close()

	assert.True(t, errors.Is(h.ctrl.SelectFile(selection.FromBytes("clip.mp4", nil)), ErrClosed))
	_, err := h.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
