// Package tlsroots loads TLS material for storefront-server.
//
//   - roots.go: system roots plus extra CA files for outbound connections
//     (the AMQP broker)
//   - keypair.go: the HTTPS key pair, reloaded when its files change
package tlsroots
