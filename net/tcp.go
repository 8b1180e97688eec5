package net

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
)

// The production network.  Dials raw tcp.
type TcpNetwork struct {
}

func NewTcpNetwork() TcpNetwork {
	return TcpNetwork{}
}

func (t TcpNetwork) Dial(endpoint Endpoint) (Connection, error) {
	return ConnectTcp(endpoint.String())
}

func ConnectTcp(addr string) (*TcpConnection, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "Error opening connection [%v]", addr)
	}

	return &TcpConnection{conn}, nil
}

func ListenTcp(port int) (*TcpListener, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	return &TcpListener{listener: listener}, nil
}

type TcpListener struct {
	listener net.Listener
}

func (u *TcpListener) Close() error {
	return u.listener.Close()
}

func (u *TcpListener) Addr() net.Addr {
	return u.listener.Addr()
}

func (u *TcpListener) Accept() (Connection, error) {
	conn, err := u.listener.Accept()
	if err != nil {
		return nil, err
	}

	return &TcpConnection{conn}, nil
}

type TcpConnection struct {
	conn net.Conn
}

func (t *TcpConnection) Close() error {
	return t.conn.Close()
}

func (t *TcpConnection) Read(p []byte) (n int, err error) {
	return t.conn.Read(p)
}

func (t *TcpConnection) Write(p []byte) (n int, err error) {
	return t.conn.Write(p)
}

func (t *TcpConnection) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *TcpConnection) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}
