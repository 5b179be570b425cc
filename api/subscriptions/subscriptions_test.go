// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacoca/pacoca/builtin/token"
	"github.com/pacoca/pacoca/logdb"
	"github.com/pacoca/pacoca/lvldb"
	"github.com/pacoca/pacoca/pacoca"
	"github.com/pacoca/pacoca/runtime"
	"github.com/pacoca/pacoca/state"
	"github.com/pacoca/pacoca/test/datagen"
)

type testServer struct {
	*httptest.Server
	t          *testing.T
	rt         *runtime.Runtime
	subs       *Subscriptions
	token      pacoca.Address
	alice, bob pacoca.Address
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	ts := &testServer{
		t:     t,
		rt:    runtime.New(state.NewStater(db)).SetLogDB(logDB),
		token: datagen.RandAddress(),
		alice: datagen.RandAddress(),
		bob:   datagen.RandAddress(),
	}
	_, err = ts.rt.Exec(ts.alice, "deploy", func(ctx *runtime.Context) error {
		tok := ctx.Token(ts.token)
		if err := tok.Init("Pacoca", "PACOCA", nil, ts.alice); err != nil {
			return err
		}
		capability, err := tok.Authorize(ts.alice)
		if err != nil {
			return err
		}
		return tok.Mint(capability, ts.bob, pacoca.Tokens(10))
	})
	require.NoError(t, err)
	_, err = ts.rt.Commit()
	require.NoError(t, err)

	router := mux.NewRouter()
	ts.subs = New(ts.rt, logDB, []string{"*"}, 10)
	ts.subs.Mount(router, "/subscriptions")
	ts.Server = httptest.NewServer(router)
	t.Cleanup(func() {
		ts.subs.Close()
		ts.Close()
	})
	return ts
}

func (ts *testServer) dial(path string, query url.Values) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: path, RawQuery: query.Encode()}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

// transfer sends one token from bob to to.
func (ts *testServer) transfer(to pacoca.Address) {
	_, err := ts.rt.Exec(ts.bob, "token.transfer", func(ctx *runtime.Context) error {
		return ctx.Token(ts.token).Transfer(ctx.Caller(), to, pacoca.Tokens(1))
	})
	require.NoError(ts.t, err)
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(v))
}

func TestSubscribeBlock(t *testing.T) {
	ts := newTestServer(t)

	conn, resp, err := ts.dial("/subscriptions/block", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// the current head comes first
	var msg BlockMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, uint32(1), msg.Number)
	assert.Equal(t, uint32(2), msg.Pending)

	head, err := ts.rt.Mine(2)
	require.NoError(t, err)
	readJSON(t, conn, &msg)
	assert.Equal(t, uint32(3), msg.Number)
	assert.Equal(t, head.Time, msg.Timestamp)

	head, err = ts.rt.IncreaseTime(time.Hour)
	require.NoError(t, err)
	ts.transfer(ts.alice)
	readJSON(t, conn, &msg)
	assert.Equal(t, uint32(4), msg.Number)
	assert.Equal(t, head.Time+pacoca.BlockInterval, msg.Timestamp)
}

func TestSubscribeBlockFromPosition(t *testing.T) {
	ts := newTestServer(t)

	// nothing is sent until the head passes pos
	conn, _, err := ts.dial("/subscriptions/block", url.Values{"pos": {"1"}})
	require.NoError(t, err)
	defer conn.Close()

	_, err = ts.rt.Mine(1)
	require.NoError(t, err)
	var msg BlockMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, uint32(2), msg.Number)

	_, resp, err := ts.dial("/subscriptions/block", url.Values{"pos": {"100"}})
	assert.Equal(t, websocket.ErrBadHandshake, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = ts.dial("/subscriptions/block", url.Values{"pos": {"abc"}})
	assert.Equal(t, websocket.ErrBadHandshake, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubscribeEvent(t *testing.T) {
	ts := newTestServer(t)
	transferID := token.ABI.MustEventByName("Transfer").ID()

	conn, _, err := ts.dial("/subscriptions/event", url.Values{
		"pos":  {"0"},
		"addr": {ts.token.String()},
		"t0":   {transferID.String()},
	})
	require.NoError(t, err)
	defer conn.Close()

	// the mint is replayed from pos
	var msg EventMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, "Transfer", msg.Name)
	assert.Equal(t, ts.token, msg.Address)
	assert.Equal(t, uint32(1), msg.Meta.BlockNumber)
	assert.Equal(t, "deploy", msg.Meta.Method)

	// events are sent once committed
	ts.transfer(ts.alice)
	_, err = ts.rt.Commit()
	require.NoError(t, err)

	readJSON(t, conn, &msg)
	assert.Equal(t, "Transfer", msg.Name)
	assert.Equal(t, uint32(2), msg.Meta.BlockNumber)
	assert.Equal(t, ts.bob, msg.Meta.Caller)
	require.Len(t, msg.Topics, 3)
	assert.Equal(t, transferID, *msg.Topics[0])
}

func TestSubscribeEventFilter(t *testing.T) {
	ts := newTestServer(t)

	// only transfers made by alice
	conn, _, err := ts.dial("/subscriptions/event", url.Values{"caller": {ts.alice.String()}})
	require.NoError(t, err)
	defer conn.Close()

	ts.transfer(ts.alice)
	_, err = ts.rt.Exec(ts.alice, "token.transfer", func(ctx *runtime.Context) error {
		return ctx.Token(ts.token).Transfer(ctx.Caller(), ts.bob, pacoca.Tokens(1))
	})
	require.NoError(t, err)
	_, err = ts.rt.Commit()
	require.NoError(t, err)

	var msg EventMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, ts.alice, msg.Meta.Caller)
	assert.Equal(t, uint32(3), msg.Meta.BlockNumber)

	for _, query := range []url.Values{
		{"addr": {"0x01"}},
		{"t2": {"0x01"}},
		{"pos": {"100"}},
	} {
		_, resp, err := ts.dial("/subscriptions/event", query)
		assert.Equal(t, websocket.ErrBadHandshake, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query.Encode())
	}
}

func TestBacktraceLimit(t *testing.T) {
	ts := newTestServer(t)
	// blocks 2 to 11
	for range 10 {
		ts.transfer(ts.alice)
	}
	_, err := ts.rt.Commit()
	require.NoError(t, err)

	_, resp, err := ts.dial("/subscriptions/event", url.Values{"pos": {"0"}})
	assert.Equal(t, websocket.ErrBadHandshake, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := ts.dial("/subscriptions/event", url.Values{"pos": {"1"}})
	require.NoError(t, err)
	conn.Close()
}

func TestUnsupportedSubject(t *testing.T) {
	ts := newTestServer(t)

	_, resp, err := ts.dial("/subscriptions/transfer", nil)
	assert.Equal(t, websocket.ErrBadHandshake, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClose(t *testing.T) {
	ts := newTestServer(t)

	conn, _, err := ts.dial("/subscriptions/block", nil)
	require.NoError(t, err)
	defer conn.Close()
	var msg BlockMessage
	readJSON(t, conn, &msg)

	ts.subs.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)

	// later subscriptions end right away
	conn2, _, err := ts.dial("/subscriptions/block", nil)
	require.NoError(t, err)
	defer conn2.Close()
	require.NoError(t, conn2.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn2.ReadMessage()
	require.NoError(t, err, "the head is written before the close frame")
	_, _, err = conn2.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)
}
