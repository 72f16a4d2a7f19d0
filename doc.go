// Package chainscan and its sub-packages implement a multi-chain balance scanner.
/*
chainscan polls the native balances of a configured list of addresses on several blockchains (Bitcoin, Litecoin,
EVM chains, Solana, TON and Tron), values them in USD and reports the addresses worth more than a threshold.

Architecture

The scanner (package scanner) starts one poller per chain with addresses to scan. Each poller asks the chain registry
(package lib/block) for the chain's balance source and the price oracle (package lib/price) for the USD price of the
chain's asset, then records every successful lookup in the scan state (package scanner/state). The state is shared by
all the pollers and read by the render loop, which draws it to the terminal (package render) every render interval.

When a lookup is worth at least the configured threshold the best value found so far is sent to the sinks (package
lib/notify): the system clipboard, the message broker (package lib/msg) and the database (package lib/store). If the
scan is configured to stop on value, the stop signal is set and all the pollers exit after their current lookup.

Balance sources are block explorers or JSON-RPC nodes reached over HTTP. A failed lookup is skipped and retried on
the next cycle. Prices are cached for a time-to-live; a failed price request keeps the cached price and values the
current cycle at zero.

Commands

The service is started running cmd/chainscan:

	chainscan scan -c conf.yaml [--interval 3] [--stop-on-profit] [--profit-min-usd 100] [--fast] [-m]
	chainscan snapshot -c conf.yaml [--duration 8s] [--output snapshot]
	chainscan watch -c conf.yaml

scan runs until stopped with CTRL+C, through the API (POST /stop) or by a found value. snapshot runs a short scan and
saves its final state as JSON and text, locally or to an S3 bucket. watch consumes the found events published by
scanners to the message broker and saves them to the database.

The scanner exposes an HTTP RESTful API (package api) when a port is configured and can be monitored via a Prometheus
API by setting the flag "-m" at startup.
*/
package chainscan
