package ledger

import "fmt"

const (
	RuleDenyAll             = 0
	RuleAllowAll            = 1
	RuleRequireSystem       = 2
	RuleRequireGlobalCaller = 3
)

const (
	ActorSystem    = 1
	ActorAccount   = 2
	ActorComponent = 3
)

const (
	RoleMinter                 = "minter"
	RoleBurner                 = "burner"
	RoleNonFungibleDataUpdater = "non_fungible_data_updater"
)

// Actor is either the signer of a transaction or a component frame on the
// call stack of that transaction.
type Actor struct {
	Kind int
	Id   string
}

var System = Actor{Kind: ActorSystem}

func Account(id string) Actor {
	return Actor{Kind: ActorAccount, Id: id}
}

func Component(address string) Actor {
	return Actor{Kind: ActorComponent, Id: address}
}

func (a Actor) String() string {
	switch a.Kind {
	case ActorSystem:
		return "system"
	case ActorAccount:
		return "account:" + a.Id
	case ActorComponent:
		return "component:" + a.Id
	}
	return fmt.Sprintf("unknown:%d:%s", a.Kind, a.Id)
}

// The zero AccessRule denies everything, so a role never assigned is locked.
type AccessRule struct {
	Kind    int
	Address string
}

func DenyAll() AccessRule {
	return AccessRule{Kind: RuleDenyAll}
}

func AllowAll() AccessRule {
	return AccessRule{Kind: RuleAllowAll}
}

func RequireSystem() AccessRule {
	return AccessRule{Kind: RuleRequireSystem}
}

func RequireGlobalCaller(component string) AccessRule {
	return AccessRule{Kind: RuleRequireGlobalCaller, Address: component}
}

func (r AccessRule) Allows(signer, caller Actor) bool {
	switch r.Kind {
	case RuleAllowAll:
		return true
	case RuleRequireSystem:
		return signer.Kind == ActorSystem
	case RuleRequireGlobalCaller:
		return caller.Kind == ActorComponent && caller.Id == r.Address
	}
	return false
}

func (r AccessRule) String() string {
	switch r.Kind {
	case RuleDenyAll:
		return "deny_all"
	case RuleAllowAll:
		return "allow_all"
	case RuleRequireSystem:
		return "require(system)"
	case RuleRequireGlobalCaller:
		return "require(global_caller(" + r.Address + "))"
	}
	return fmt.Sprintf("unknown(%d)", r.Kind)
}

type RoleAssignment struct {
	Rule    AccessRule
	Updater AccessRule
}

// Locked assigns a rule that can never be changed afterwards.
func Locked(rule AccessRule) *RoleAssignment {
	return &RoleAssignment{Rule: rule, Updater: DenyAll()}
}
