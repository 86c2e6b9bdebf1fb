// Package gate implements the passive login check that runs before any
// protected content renders.
//
// When the deployment is passive, nobody is signed in, no permission denial
// was recorded and anonymous access is allowed, the gate probes whether the
// browser already has a session with the identity provider, without ever
// prompting for credentials:
//
//   - with an external identity provider the browser is redirected once to
//     {context}/services/configs?loginPrompt=false. The loginStatus marker in
//     the browser session makes the redirect happen once: it is set together
//     with the redirect and cleared when the browser comes back.
//   - otherwise the same endpoint is requested directly and any HTTP answer
//     lifts the loading placeholder. A transport failure keeps it.
//
// Evaluate is the pure decision; Gate.Run performs it. Run always gets the
// settings the loader just resolved, never a re-read of page state.
package gate
