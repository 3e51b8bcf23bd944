/*
Package signalr is a client for a bidirectional hub-style RPC protocol layered
over a persistent message transport (WebSockets, falling back to
Server-Sent Events).

A HubConnection is built with NewHubConnectionBuilder, which accepts the
server's base URL plus optional configuration (headers, cookies, client
certificates, proxy, transport preference, logging). Call Start to negotiate,
connect and perform the protocol handshake; once it returns, On registers
handlers the server may invoke, Invoke calls a server method and awaits its
result, and Send fires a one-way call.

Basics

The wire protocol is record-oriented: every message is a JSON object
terminated by the byte 0x1E. The first record after the transport connects
is always the handshake response, never a hub message. For more detail see
https://github.com/dotnet/aspnetcore/blob/main/src/SignalR/docs/specs/HubProtocol.md
and https://github.com/dotnet/aspnetcore/blob/main/src/SignalR/docs/specs/TransportProtocols.md

Streaming hub messages (StreamItem, StreamInvocation, CancelInvocation) are
reserved wire types this client parses but does not act on; they are an
extension point, not a supported feature.
*/
package signalr
