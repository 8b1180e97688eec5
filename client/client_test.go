package client

import (
	"io"
	"testing"

	"github.com/pkopriv2/seglog/common"
	"github.com/pkopriv2/seglog/concurrent"
	"github.com/pkopriv2/seglog/net"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, port int) (Client, *testServer) {
	network := net.NewMemNetwork()
	endpoint := net.NewEndpoint("mem", port)

	server, err := newTestServer(network, endpoint)
	if err != nil {
		t.Fatal(err)
	}

	ctx := common.NewContext(common.NewEmptyConfig())
	return NewClient(ctx, net.NewConnectionFactory(ctx, network), endpoint), server
}

func TestClient_CreateSegment(t *testing.T) {
	client, server := newTestClient(t, 1)
	defer server.Close()

	created, err := client.CreateSegment("s1")
	assert.Nil(t, err)
	assert.True(t, created)

	created, err = client.CreateSegment("s1")
	assert.Nil(t, err)
	assert.False(t, created)
}

func TestClient_CreateSegment_NoServer(t *testing.T) {
	network := net.NewMemNetwork()
	ctx := common.NewContext(common.NewEmptyConfig())
	client := NewClient(ctx, net.NewConnectionFactory(ctx, network), net.NewEndpoint("mem", 99))

	_, err := client.CreateSegment("s1")
	assert.NotNil(t, err)
}

func TestClient_SegmentExists_Unsupported(t *testing.T) {
	client, server := newTestClient(t, 2)
	defer server.Close()

	_, err := client.SegmentExists("s1")
	assert.Equal(t, UnsupportedError, extractError(err))
}

func TestClient_OpenTransaction_Unsupported(t *testing.T) {
	client, server := newTestClient(t, 3)
	defer server.Close()

	_, err := client.OpenTransaction("s1", uuid.NewV4())
	assert.Equal(t, UnsupportedError, extractError(err))
}

func TestClient_AppendRoundtrip(t *testing.T) {
	client, server := newTestClient(t, 4)
	defer server.Close()

	created, err := client.CreateSegment("s1")
	assert.Nil(t, err)
	assert.True(t, created)

	output, err := client.OpenOutput("s1")
	assert.Nil(t, err)

	c1 := concurrent.NewCompletion()
	c2 := concurrent.NewCompletion()
	c3 := concurrent.NewCompletion()
	assert.Nil(t, output.Write([]byte("abc"), c1))
	assert.Nil(t, output.Write([]byte("defgh"), c2))
	assert.Nil(t, output.Write([]byte("ij"), c3))

	assert.Nil(t, output.Flush())
	assert.Nil(t, c1.Await())
	assert.Nil(t, c2.Await())
	assert.Nil(t, c3.Await())
	assert.Nil(t, output.Close())

	assert.Equal(t, []byte("abcdefghij"), server.Data("s1"))
}

func TestClient_ReadBack(t *testing.T) {
	client, server := newTestClient(t, 5)
	defer server.Close()

	_, err := client.CreateSegment("s1")
	assert.Nil(t, err)

	output, err := client.OpenOutput("s1")
	assert.Nil(t, err)
	assert.Nil(t, output.Write([]byte("abcdefghij"), concurrent.NewCompletion()))
	assert.Nil(t, output.Flush())
	assert.Nil(t, output.Close())

	input, err := client.OpenInput("s1")
	assert.Nil(t, err)
	defer input.Close()

	data, err := io.ReadAll(input)
	assert.Nil(t, err)
	assert.Equal(t, []byte("abcdefghij"), data)
}

func TestClient_OpenOutput_MissingSegment(t *testing.T) {
	client, server := newTestClient(t, 6)
	defer server.Close()

	// the open itself suppresses the failure; the first write surfaces it
	output, err := client.OpenOutput("missing")
	assert.Nil(t, err)

	err = output.Write([]byte("abc"), concurrent.NewCompletion())
	assert.Equal(t, InvalidArgumentError, extractError(err))
}

func TestClient_OpenOutput_NoServer(t *testing.T) {
	network := net.NewMemNetwork()
	ctx := common.NewContext(common.NewConfig(map[string]interface{}{
		confOutputConnectDelay: 0}))
	client := NewClient(ctx, net.NewConnectionFactory(ctx, network), net.NewEndpoint("mem", 99))

	output, err := client.OpenOutput("s1")
	assert.Nil(t, err)

	err = output.Write([]byte("abc"), concurrent.NewCompletion())
	assert.Equal(t, UnavailableError, extractError(err))
}
