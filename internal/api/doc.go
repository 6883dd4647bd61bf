// Package api holds the endpoint handlers of the library service. Handlers
// run as the terminal step of the request pipeline: by the time one is
// called the caller is authenticated (when the route requires it), the API
// version is resolved, and a unit of work is open on the request. Handlers
// return domain errors and leave status mapping to the pipeline's error
// filter.
package api
