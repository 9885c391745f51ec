package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/eventcat/internal/repository"
)

// Health is the liveness endpoint used by load balancers and monitoring.
// It reports the number of rows currently held by the store.
func Health(repo *repository.EventRepo) echo.HandlerFunc {
    return func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{
            "status": "ok",
            "events": repo.Len(),
        })
    }
}
