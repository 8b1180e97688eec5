package client

import "time"

const (
	confOutputConnectAttempts = "seglog.client.output.connect.attempts"
	confOutputConnectDelay    = "seglog.client.output.connect.delay"
	confCreateTimeout         = "seglog.client.create.timeout"
	confInputFetchSize        = "seglog.client.input.fetch.size"
)

const (
	defaultOutputConnectAttempts = 5
	defaultOutputConnectDelay    = time.Millisecond
	defaultCreateTimeout         = 30 * time.Second
	defaultInputFetchSize        = 64 * 1024

	// each failed connect attempt multiplies the delay by this factor
	connectDelayFactor = 10
)
