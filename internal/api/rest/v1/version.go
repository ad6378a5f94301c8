package v1

// BasePath is the URL prefix of every v1 route.
const BasePath = "/api/v1/dwb"
