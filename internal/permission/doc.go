/*
Package permission decides whether tool calls are allowed, denied, or need
user consent.

# Decision model

Evaluate resolves a check against the permission config using wildcard
pattern matching. Rules come in three forms:

  - A plain action string: "edit": "allow"
  - A wildcard pattern map: "bash": {"git *": "allow", "rm *": "deny"}
  - A legacy bare array of patterns, where membership maps to ask

Pattern maps are resolved by specificity: the match with the highest
priority wins, exact equality always first. Two defaults are deliberately
asymmetric and must not be unified:

  - A pattern map that matches nothing fails safe to "ask": the user
    configured rules for this subject and did not anticipate this input.
  - A subject entirely absent from config defaults to "allow", the
    backward-compatible permissive default.

# Precedence

An environment-supplied permission config (KUUZUKI_PERMISSION) entirely
replaces the file config, including its own agent subtree; there is no
merging. Within the winning source, a rule in the invoking agent's
override subtree outranks the global rule for the same subject.

# Bash commands

Command lines are parsed with mvdan.cc/sh so every command in a pipe or
chain is checked separately. BuildPatterns derives the "git commit *"
style patterns shown in permission prompts, and ExtractPaths feeds the
security validator.

# Ask flow

Checker runs the interactive flow for "ask" decisions: it publishes a
permission.required event, blocks until Respond delivers the user's
answer, and remembers "always" approvals per session. Deny decisions are
policy, not transient failure; they surface immediately and are never
retried.
*/
package permission
