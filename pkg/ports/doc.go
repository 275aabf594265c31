/*
Package ports defines the driven-side interfaces of the finagent engine:
the reasoning client, the tool registry, document retrieval and trace
persistence.

The engine depends only on these contracts; concrete adapters live under
pkg/reasoning, pkg/registry, pkg/retrieval and pkg/adapters.
*/
package ports
