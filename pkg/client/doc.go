/*
Package client implements the Zabbix JSON-RPC API calls used by maintsync.

Every request is an HTTP POST of a JSON-RPC 2.0 envelope with
Content-Type application/json-rpc. After Login the session token is sent as
a bearer token:

	c, err := client.NewClient(client.Config{
		URL:      "https://zabbix.example.com/api_jsonrpc.php",
		Username: "maint",
		Password: "secret",
	})
	if err != nil {
		return err
	}
	if err := c.Login(ctx); err != nil {
		return err // *AuthenticationError when credentials are rejected
	}
	defer c.Logout(ctx)

	hosts, err := c.GetHosts(ctx)

# Errors

  - *AuthenticationError: user.login returned an API error
  - *TransportError: the request failed, the HTTP status was not 200 or the
    body was not JSON-RPC
  - *APIError: the response carried a JSON-RPC error object or no result

The client never retries. A failed call is returned to the caller, which
aborts the pass; the next scheduled run starts over from fresh state.

# Wire Format

Zabbix encodes most numbers as strings ("active_till": "1705312800").
Decoding accepts both strings and numbers. host.update always sends the full
tag list since Zabbix replaces the host's tags wholesale.
*/
package client
