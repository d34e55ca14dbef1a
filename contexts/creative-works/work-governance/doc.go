// Package workgovernance implements the collaborative work governance
// engine: authors publish works, share them with collaborators, and decide
// destructive or membership changes by vote. Payments for access and
// distributions are split between the members of a work.
//
// Domain and application code reach storage, payments and the event bus only
// through ports; adapters are composed in module.go and in the platform
// bootstrap.
package workgovernance
