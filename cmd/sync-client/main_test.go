package main

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellhub/pkg/logutils"
)

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "{\n  \"type\": \"welcome\"\n}", formatEvent([]byte(`{"type":"welcome"}`), true))
	assert.Equal(t, `{"type":"welcome"}`, formatEvent([]byte(`{"type":"welcome"}`), false))
	assert.Equal(t, "not json", formatEvent([]byte("not json"), true))
}

func TestTail(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte("{\"type\":\"welcome\"}\n{\"type\":\"cache.resolved\",\"generation\":2}\n"))
		_ = conn.Close()
	}()

	var out bytes.Buffer
	n, err := tail(logutils.Component("test"), &out, ln.Addr().String(), false)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "{\"type\":\"welcome\"}\n{\"type\":\"cache.resolved\",\"generation\":2}\n", out.String())

	_, err = tail(logutils.Component("test"), &out, "127.0.0.1:1", false)
	assert.Error(t, err)
}
